package models

// RoomType classifies a room by the kind of sessions it is meant to host.
type RoomType string

const (
	RoomTypeLab     RoomType = "lab"
	RoomTypeTheory  RoomType = "theory"
	RoomTypeUnknown RoomType = "unknown"
)

// Teacher is derived from the sessions a teacher appears in.
type Teacher struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	StaffCode       string   `json:"staff_code,omitempty"`
	Departments     []string `json:"departments,omitempty"`
	CrossDepartment bool     `json:"cross_department"`
}

// Room is derived from the sessions held in it.
type Room struct {
	ID       string   `json:"id"`
	Number   string   `json:"number"`
	Block    string   `json:"block,omitempty"`
	Type     RoomType `json:"type"`
	Capacity int      `json:"capacity"`
}

// Entities groups the derived entity sets exposed to presentation collaborators.
type Entities struct {
	Teachers              []Teacher         `json:"teachers"`
	Rooms                 []Room            `json:"rooms"`
	Groups                []string          `json:"groups"`
	DepartmentDayPatterns map[string]string `json:"department_day_patterns,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
