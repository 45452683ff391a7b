package authz

import (
	"complaintportal/backend/internal/models"
	"strings"
)

// LoginPath is the login view.
const LoginPath = "/login"

// Route is a view and the role it requires. Required == "" marks the root dispatcher.
type Route struct {
	Pattern  string
	Required models.Role
}

// Table matches paths to routes. Segments starting with ':' are parameters.
type Table struct {
	routes []Route
}

// NewTable builds a table from routes in match order.
func NewTable(routes ...Route) *Table {
	return &Table{routes: routes}
}

// DefaultRoutes is the portal's view table.
func DefaultRoutes() *Table {
	return NewTable(
		Route{Pattern: "/"},

		Route{Pattern: "/student/home", Required: models.RoleStudent},
		Route{Pattern: "/student/profile", Required: models.RoleStudent},
		Route{Pattern: "/student/complaint", Required: models.RoleStudent},
		Route{Pattern: "/student/complaints/:complaintNumber", Required: models.RoleStudent},

		Route{Pattern: "/intermediate/complaints", Required: models.RoleIntermediate},

		Route{Pattern: "/admin/dashboard", Required: models.RoleAdmin},
		Route{Pattern: "/admin/complaints", Required: models.RoleAdmin},

		Route{Pattern: "/superadmin/admins", Required: models.RoleSuperAdmin},
		Route{Pattern: "/superadmin/profile", Required: models.RoleSuperAdmin},
	)
}

// Match returns the route for path. Unknown paths fall back to the root
// dispatcher, like the catch-all route.
func (t *Table) Match(path string) Route {
	want := split(path)
	for _, r := range t.routes {
		if matches(split(r.Pattern), want) {
			return r
		}
	}
	return Route{Pattern: "/"}
}

// Routes lists the table in match order.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

func split(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func matches(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if path[i] == "" {
				return false
			}
			continue
		}
		if seg != path[i] {
			return false
		}
	}
	return true
}
