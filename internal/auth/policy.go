package auth

import (
	"net/http"

	"github.com/abduss/goshop/internal/user"
	"github.com/gin-gonic/gin"
)

// Rule is access metadata declared on a route group or a single route.
// A nil Public or nil Roles inherits from the enclosing group.
type Rule struct {
	Public *bool
	Roles  []user.Role
}

// Inherit is the empty rule.
var Inherit = Rule{}

// PublicRule marks a target as reachable without credentials.
func PublicRule() Rule {
	public := true
	return Rule{Public: &public}
}

// Authenticated marks a target as requiring a valid access token, overriding a public group.
func Authenticated() Rule {
	public := false
	return Rule{Public: &public}
}

// RequireRoles requires any one of roles. With no arguments it clears inherited roles.
func RequireRoles(roles ...user.Role) Rule {
	if roles == nil {
		roles = []user.Role{}
	}
	return Rule{Roles: roles}
}

// Policy is the effective access decision for one route.
type Policy struct {
	Public bool
	Roles  []user.Role
}

// Resolve merges rules, most specific first. For each field the first rule
// that sets it wins; unset everywhere means not public and no role check.
func Resolve(rules ...Rule) Policy {
	var p Policy
	publicSet, rolesSet := false, false
	for _, r := range rules {
		if !publicSet && r.Public != nil {
			p.Public = *r.Public
			publicSet = true
		}
		if !rolesSet && r.Roles != nil {
			p.Roles = normalizeRoles(r.Roles...)
			rolesSet = true
		}
	}
	return p
}

// Route declares one endpoint with its access rule.
type Route struct {
	Name    string
	Method  string
	Path    string
	Rule    Rule
	Before  []gin.HandlerFunc
	Handler gin.HandlerFunc
}

// Group declares a set of routes sharing a prefix and a default rule.
type Group struct {
	Name   string
	Prefix string
	Rule   Rule
	Routes []Route
}

// PolicyTable maps "group.route" to the resolved policy.
type PolicyTable map[string]Policy

// Mount registers groups under parent, placing the authentication and
// authorization guards in front of every handler.
func (g *Guard) Mount(parent gin.IRouter, groups ...Group) PolicyTable {
	table := make(PolicyTable)
	for _, grp := range groups {
		rg := parent.Group(grp.Prefix)
		for _, rt := range grp.Routes {
			policy := Resolve(rt.Rule, grp.Rule)
			table[grp.Name+"."+rt.Name] = policy

			chain := make([]gin.HandlerFunc, 0, len(rt.Before)+3)
			chain = append(chain, rt.Before...)
			chain = append(chain, g.Authenticate(policy), g.Authorize(policy), rt.Handler)
			rg.Handle(methodOrGet(rt.Method), rt.Path, chain...)
		}
	}
	return table
}

func methodOrGet(m string) string {
	if m == "" {
		return http.MethodGet
	}
	return m
}
