package resources

import "github.com/jrsteele09/bluewater-portal/users"

// Collection names on the backend.
const (
	Bookings   = "bookings"
	Families   = "families"
	Profiles   = "profiles"
	Rooms      = "rooms"
	Events     = "events"
	Tasks      = "tasks"
	Tags       = "tags"
	Checklists = "checklists"
	Pictures   = "pictures"

	MyFamiliesPath  = "families/me"
	ToggleAdminPath = "profiles/toggle-admin"
)

type Meal struct {
	ID           int    `json:"id" validate:"gt=0"`
	Date         string `json:"date" validate:"required"`
	HasBreakfast bool   `json:"has_breakfast"`
	HasLunch     bool   `json:"has_lunch"`
	HasDinner    bool   `json:"has_dinner"`
}

// Guest is one person staying on a booking. RoomID and RoomName are unset
// until a room is assigned.
type Guest struct {
	ID        int     `json:"id" validate:"gt=0"`
	ProfileID int     `json:"profile_id" validate:"gt=0"`
	Meals     []Meal  `json:"meals" validate:"dive"`
	RoomID    *int    `json:"room_id,omitempty"`
	RoomName  *string `json:"room_name,omitempty"`
}

type Booking struct {
	ID            int     `json:"id" validate:"gt=0"`
	StartDate     string  `json:"start_date" validate:"required"`
	EndDate       string  `json:"end_date" validate:"required"`
	ArrivalTime   string  `json:"arrival_time"`
	DepartureTime string  `json:"departure_time"`
	SubmitterID   int     `json:"submitter_id"`
	Note          string  `json:"note"`
	Guests        []Guest `json:"guests" validate:"dive"`
}

type Member struct {
	Profile users.Profile `json:"profile"`
	IsHead  bool          `json:"is_head"`
}

type Family struct {
	ID      int      `json:"id" validate:"gt=0"`
	Name    string   `json:"name" validate:"required"`
	Members []Member `json:"members" validate:"dive"`
}

// Head returns the family's head member, if one is flagged.
func (f Family) Head() (Member, bool) {
	for _, m := range f.Members {
		if m.IsHead {
			return m, true
		}
	}
	return Member{}, false
}

type Room struct {
	ID        int    `json:"id" validate:"gt=0"`
	Name      string `json:"name" validate:"required"`
	MinPeople int    `json:"min_people" validate:"gte=0"`
	MaxPeople int    `json:"max_people" validate:"gtefield=MinPeople"`
	Floor     string `json:"floor"`
	BedSize   string `json:"bed_size"`
	Notes     string `json:"notes"`
}

type Event struct {
	ID              int      `json:"id" validate:"gt=0"`
	Name            string   `json:"name" validate:"required"`
	Description     string   `json:"description"`
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	InvitedFamilies []Family `json:"invited_families" validate:"dive"`
}

type TaskStatus string

const (
	TaskNotStarted TaskStatus = "not_started"
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "in_progress"
	TaskFinished   TaskStatus = "finished"
	TaskPaused     TaskStatus = "paused"
	TaskOverdue    TaskStatus = "overdue"
)

type Tag struct {
	ID          int    `json:"id" validate:"gt=0"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type Picture struct {
	ID       int    `json:"id" validate:"gt=0"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type Task struct {
	ID          int             `json:"id" validate:"gt=0"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	IsPublic    bool            `json:"is_public"`
	DueDate     string          `json:"due_date"`
	StartDate   string          `json:"start_date"`
	Status      TaskStatus      `json:"status" validate:"omitempty,oneof=not_started assigned in_progress finished paused overdue"`
	Profiles    []users.Profile `json:"profiles" validate:"dive"`
	Tags        []Tag           `json:"tags" validate:"dive"`
	Pictures    []Picture       `json:"pictures" validate:"dive"`
}

type ChecklistScope string

const (
	ScopeReminder   ChecklistScope = "reminder"
	ScopePerUser    ChecklistScope = "per_user"
	ScopeCumulative ChecklistScope = "cumulative"
)

type ChecklistItem struct {
	ID          int    `json:"id" validate:"gt=0"`
	Text        string `json:"text" validate:"required"`
	Order       int    `json:"order"`
	ChecklistID int    `json:"checklist_id"`
	Required    bool   `json:"required"`
	PictureIDs  []int  `json:"picture_ids,omitempty"`
}

type Checklist struct {
	ID     int             `json:"id" validate:"gt=0"`
	Title  string          `json:"title" validate:"required"`
	Active bool            `json:"active"`
	Scope  ChecklistScope  `json:"scope" validate:"oneof=reminder per_user cumulative"`
	Items  []ChecklistItem `json:"items" validate:"dive"`
	Tags   []Tag           `json:"tags" validate:"dive"`
}
