package nav

import "github.com/baechuer/tutorhub/services/web-bff/internal/domain"

type MenuItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

var publicLinks = []MenuItem{
	{Key: "home", Label: "Home", Path: "/"},
	{Key: "courses", Label: "Courses", Path: "/courses"},
}

// Menus returns the dispatch table for the navigation bar and dashboard
// sidebar. The fallback shows only the profile entry.
func Menus() *Dispatcher[[]MenuItem] {
	profile := MenuItem{Key: "profile", Label: "Profile", Path: "/profile"}
	return MustDispatcher(map[domain.Role][]MenuItem{
		domain.RoleStudent: withPublic(
			profile,
			MenuItem{Key: "my-courses", Label: "My Courses", Path: "/profile?section=enrollments"},
		),
		domain.RoleMentor: withPublic(
			profile,
			MenuItem{Key: "my-classes", Label: "My Classes", Path: "/profile?section=courses"},
		),
		domain.RoleAdmin: withPublic(
			MenuItem{Key: "dashboard", Label: "Dashboard", Path: "/profile?section=dashboard"},
			MenuItem{Key: "students", Label: "Students", Path: "/profile?section=students"},
			MenuItem{Key: "mentors", Label: "Mentors", Path: "/profile?section=mentors"},
			MenuItem{Key: "mentor-requests", Label: "Mentor Requests", Path: "/profile?section=mentor-requests"},
			MenuItem{Key: "rejected-mentors", Label: "Rejected Mentors", Path: "/profile?section=rejected-mentors"},
			MenuItem{Key: "blocked-account", Label: "Blocked Accounts", Path: "/profile?section=blocked-account"},
			MenuItem{Key: "deleted-users", Label: "Deleted Users", Path: "/profile?section=deleted-users"},
		),
	}, withPublic(profile))
}

// Guest links for visitors without a session.
func Guest() []MenuItem {
	return withPublic(MenuItem{Key: "auth", Label: "Login", Path: "/auth"})
}

func withPublic(items ...MenuItem) []MenuItem {
	out := make([]MenuItem, 0, len(publicLinks)+len(items))
	out = append(out, publicLinks...)
	return append(out, items...)
}
