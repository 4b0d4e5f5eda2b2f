// Package navigation maps a role tag to its menu and dashboard descriptors.
// Pure data, recomputed per request, no I/O.
package navigation

import (
	"github.com/bridgesync/bridgesync/internal/model"
)

// MenuItem is one navigation entry.
type MenuItem struct {
	Href  string `json:"href"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Stat is one dashboard figure.
type Stat struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Change string `json:"change"`
}

// Dashboard describes the role's dashboard content.
type Dashboard struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Stats    []Stat `json:"stats"`
}

var homeItem = MenuItem{Href: "/", Label: "Home", Icon: "home"}

// MenuFor returns the ordered menu entries for a role. Any role outside the
// closed set gets exactly the home entry.
func MenuFor(role model.Role) []MenuItem {
	switch role {
	case model.RoleSales:
		return []MenuItem{
			homeItem,
			{Href: "/upload", Label: "Upload Audio", Icon: "upload"},
			{Href: "/history", Label: "Upload History", Icon: "list"},
		}
	case model.RolePM:
		return []MenuItem{
			homeItem,
			{Href: "/summaries", Label: "AI Summaries", Icon: "chart"},
			{Href: "/tasks", Label: "Task Management", Icon: "check"},
			{Href: "/dashboard", Label: "Dashboard", Icon: "trend"},
		}
	case model.RoleDev:
		return []MenuItem{
			homeItem,
			{Href: "/tasks", Label: "My Tasks", Icon: "check"},
			{Href: "/dashboard", Label: "Dashboard", Icon: "trend"},
		}
	default:
		return []MenuItem{homeItem}
	}
}

// DashboardFor returns the role's dashboard descriptor. The figures are
// placeholders until real metrics exist.
func DashboardFor(role model.Role) Dashboard {
	switch role {
	case model.RoleSales:
		return Dashboard{
			Title:    "Sales Dashboard",
			Subtitle: "Track your uploads and client interactions",
			Stats: []Stat{
				{Label: "Files Uploaded", Value: "24", Change: "+12%"},
				{Label: "Processing Time", Value: "2.3 min", Change: "-15%"},
				{Label: "Client Calls", Value: "18", Change: "+8%"},
				{Label: "Success Rate", Value: "94%", Change: "+3%"},
			},
		}
	case model.RolePM:
		return Dashboard{
			Title:    "Project Management Dashboard",
			Subtitle: "Monitor team productivity and project progress",
			Stats: []Stat{
				{Label: "Active Tasks", Value: "12", Change: "+3"},
				{Label: "Completed This Week", Value: "8", Change: "+2"},
				{Label: "Team Velocity", Value: "85%", Change: "+5%"},
				{Label: "On-Time Delivery", Value: "92%", Change: "+2%"},
			},
		}
	case model.RoleDev:
		return Dashboard{
			Title:    "Developer Dashboard",
			Subtitle: "Track your tasks and productivity",
			Stats: []Stat{
				{Label: "Assigned Tasks", Value: "6", Change: "+1"},
				{Label: "Completed Today", Value: "2", Change: "+1"},
				{Label: "Hours Worked", Value: "6.5", Change: "+0.5"},
				{Label: "Code Quality", Value: "A+", Change: "Stable"},
			},
		}
	default:
		return Dashboard{
			Title:    "Dashboard",
			Subtitle: "Overview of your activities",
		}
	}
}
