package directory

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/oit-infosec/awareness-compliance/internal"
)

// memberRangeWidth is how many member values Active Directory returns
// per ranged attribute read.
const memberRangeWidth = 1500

// Conn is the slice of *ldap.Conn this package uses. Tests substitute a
// fake; production hands in the bound connection from Connect.
type Conn interface {
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Modify(req *ldap.ModifyRequest) error
	Close() error
}

// Connect dials the directory and performs a simple bind. Certificate
// verification is disabled: the deployment's domain controllers present
// an internal CA the run host does not trust.
func Connect(cfg internal.DirectoryConfig) (*ldap.Conn, error) {
	conn, err := ldap.DialURL(cfg.URL, ldap.DialWithTLSConfig(&tls.Config{InsecureSkipVerify: true}))
	if err != nil {
		return nil, internal.NewDirectoryError("directory dial failed", internal.ErrCodeBindFailed, err)
	}

	if err := conn.Bind(cfg.BindUser, cfg.BindPassword); err != nil {
		conn.Close()
		return nil, internal.NewDirectoryError("directory bind failed", internal.ErrCodeBindFailed, err)
	}

	return conn, nil
}

type Service struct {
	conn         Conn
	searchBase   string
	userOUMarker string
	logger       *slog.Logger
}

func NewService(conn Conn, cfg internal.DirectoryConfig, logger *slog.Logger) *Service {
	return &Service{
		conn:         conn,
		searchBase:   cfg.SearchBase,
		userOUMarker: strings.ToLower(cfg.UserOUMarker),
		logger:       logger,
	}
}

// ResolveDN turns a bare identity into its distinguished name. An input
// already containing the user OU marker is taken to be a full DN and
// passed through. Zero matches and multiple matches both come back as
// ErrEntryNotFound: an ambiguous identity is never usable for a group
// mutation.
func (s *Service) ResolveDN(identity string) (string, error) {
	if s.userOUMarker != "" && strings.Contains(strings.ToLower(identity), s.userOUMarker) {
		return identity, nil
	}

	req := ldap.NewSearchRequest(
		s.searchBase,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		fmt.Sprintf("(cn=%s)", ldap.EscapeFilter(identity)),
		[]string{"cn"},
		nil,
	)

	res, err := s.conn.Search(req)
	if err != nil {
		return "", internal.NewDirectoryError(fmt.Sprintf("search for %q failed", identity), internal.ErrCodeSearchFailed, err)
	}

	matches := withoutReferrals(res.Entries)
	if len(matches) != 1 {
		return "", fmt.Errorf("identity %q matched %d entries: %w", identity, len(matches), internal.ErrEntryNotFound)
	}
	return matches[0].DN, nil
}

// withoutReferrals drops the domain-DNS-zone referral pseudo-entries AD
// mixes into subtree results; they carry an empty DN.
func withoutReferrals(entries []*ldap.Entry) []*ldap.Entry {
	var kept []*ldap.Entry
	for _, entry := range entries {
		if entry.DN != "" {
			kept = append(kept, entry)
		}
	}
	return kept
}

// GroupMembers reads a group's membership via ranged attribute requests,
// 1500 members per window. The final window's attribute comes back named
// with a wildcard upper bound ("member;range=N-*"), which ends the walk
// without another request. Members are returned as lowercase CNs.
func (s *Service) GroupMembers(groupName string) (map[string]struct{}, error) {
	filter := fmt.Sprintf("(cn=%s)", ldap.EscapeFilter(groupName))
	members := make(map[string]struct{})

	low := 0
	for {
		rangedAttr := fmt.Sprintf("member;range=%d-%d", low, low+memberRangeWidth-1)
		req := ldap.NewSearchRequest(
			s.searchBase,
			ldap.ScopeWholeSubtree,
			ldap.NeverDerefAliases,
			0, 0, false,
			filter,
			[]string{rangedAttr},
			nil,
		)

		res, err := s.conn.Search(req)
		if err != nil {
			return nil, internal.NewDirectoryError(fmt.Sprintf("membership search for group %q failed", groupName), internal.ErrCodeSearchFailed, err)
		}

		entries := withoutReferrals(res.Entries)
		if len(entries) == 0 {
			return nil, fmt.Errorf("group %q: %w", groupName, internal.ErrGroupNotFound)
		}

		var memberAttr *ldap.EntryAttribute
		lastWindow := false
		for _, attr := range entries[0].Attributes {
			if strings.HasPrefix(strings.ToLower(attr.Name), "member;range=") {
				memberAttr = attr
				lastWindow = strings.HasSuffix(attr.Name, "-*")
				break
			}
		}

		// No ranged attribute at all means the group has no members
		// beyond what we've already read.
		if memberAttr == nil {
			return members, nil
		}

		for _, dn := range memberAttr.Values {
			if cn := cnFromDN(dn); cn != "" {
				members[cn] = struct{}{}
			}
		}

		s.logger.Debug("read group membership window",
			"group", groupName,
			"window_start", low,
			"members_so_far", len(members),
			"final", lastWindow)

		if lastWindow {
			return members, nil
		}
		low += memberRangeWidth
	}
}

// cnFromDN extracts the common name from a member DN like
// "CN=jdoe,OU=staff,DC=example,DC=edu", lowercased.
func cnFromDN(dn string) string {
	idx := strings.Index(strings.ToLower(dn), "cn=")
	if idx < 0 {
		return ""
	}
	rest := dn[idx+len("cn="):]
	if comma := strings.Index(rest, ","); comma >= 0 {
		rest = rest[:comma]
	}
	return strings.ToLower(strings.TrimSpace(rest))
}

type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// OpResult records one membership mutation attempt. Failures are data,
// not control flow: the batch continues past them.
type OpResult struct {
	Op       Op
	Identity string
	DN       string
	Err      error
}

func (r OpResult) Failed() bool {
	return r.Err != nil
}

type OpResults []OpResult

// Succeeded returns the identities whose mutation of the given kind was
// applied.
func (rs OpResults) Succeeded(op Op) []string {
	var ids []string
	for _, r := range rs {
		if r.Op == op && !r.Failed() {
			ids = append(ids, r.Identity)
		}
	}
	return ids
}

func (rs OpResults) Failures() OpResults {
	var failed OpResults
	for _, r := range rs {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Changed reports whether any mutation was actually applied.
func (rs OpResults) Changed() bool {
	for _, r := range rs {
		if !r.Failed() {
			return true
		}
	}
	return false
}

// UpdateGroup applies the additions then the removals against the group
// DN, one modify per identity. A failure to resolve or modify is
// captured in that identity's OpResult and the batch moves on; there is
// no transaction around the whole update, so the caller reports partial
// results rather than pretending atomicity.
func (s *Service) UpdateGroup(groupDN string, additions, removals []string) OpResults {
	results := make(OpResults, 0, len(additions)+len(removals))

	for _, identity := range additions {
		results = append(results, s.modifyMember(groupDN, identity, OpAdd))
	}
	for _, identity := range removals {
		results = append(results, s.modifyMember(groupDN, identity, OpRemove))
	}

	return results
}

func (s *Service) modifyMember(groupDN, identity string, op Op) OpResult {
	s.logger.Info("updating group membership",
		"op", string(op),
		"identity", identity,
		"group_dn", groupDN)

	dn, err := s.ResolveDN(identity)
	if err != nil {
		s.logger.Error("could not resolve identity for group update",
			"op", string(op),
			"identity", identity,
			"error", err)
		return OpResult{Op: op, Identity: identity, Err: err}
	}

	req := ldap.NewModifyRequest(groupDN, nil)
	switch op {
	case OpAdd:
		req.Add("member", []string{dn})
	case OpRemove:
		req.Delete("member", []string{dn})
	}

	if err := s.conn.Modify(req); err != nil {
		s.logger.Error("group membership update failed",
			"op", string(op),
			"identity", identity,
			"group_dn", groupDN,
			"error", err)
		return OpResult{
			Op:       op,
			Identity: identity,
			DN:       dn,
			Err:      internal.NewDirectoryError(fmt.Sprintf("%s of %s failed", op, identity), internal.ErrCodeModifyFailed, err),
		}
	}

	s.logger.Info("group membership updated",
		"op", string(op),
		"identity", identity,
		"group_dn", groupDN)
	return OpResult{Op: op, Identity: identity, DN: dn}
}
