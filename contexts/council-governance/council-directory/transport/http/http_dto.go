package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterPlaceRequest struct {
	Name        string `json:"name"`
	NamePersian string `json:"name_persian"`
	Province    string `json:"province,omitempty"`
	County      string `json:"county,omitempty"`
}

type EstablishShoraRequest struct {
	PlaceID     string    `json:"place_id"`
	Name        string    `json:"name"`
	NamePersian string    `json:"name_persian"`
	Type        string    `json:"type,omitempty"`
	TermStart   time.Time `json:"term_start"`
	TermEnd     time.Time `json:"term_end"`
	TermNumber  int       `json:"term_number,omitempty"`
	TotalSeats  int       `json:"total_seats,omitempty"`
	Quorum      int       `json:"quorum,omitempty"`
}

type SeatRepresentativeRequest struct {
	UserID      string     `json:"user_id"`
	Role        string     `json:"role,omitempty"`
	Position    string     `json:"position,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
}

type PlaceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	NamePersian string    `json:"name_persian"`
	Province    string    `json:"province,omitempty"`
	County      string    `json:"county,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PlaceListResponse struct {
	Items []PlaceResponse `json:"items"`
}

type RepresentativeView struct {
	UserID      string     `json:"user_id"`
	Role        string     `json:"role"`
	Position    string     `json:"position"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"is_active"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

type TermView struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Number    int       `json:"number"`
}

type StructureView struct {
	TotalSeats               int `json:"total_seats"`
	MainRepresentatives      int `json:"main_representatives"`
	AlternateRepresentatives int `json:"alternate_representatives"`
}

type PoliciesView struct {
	Quorum       int    `json:"quorum"`
	VotingMethod string `json:"voting_method"`
}

type ShoraResponse struct {
	ID                string               `json:"id"`
	PlaceID           string               `json:"place_id"`
	Name              string               `json:"name"`
	NamePersian       string               `json:"name_persian"`
	Type              string               `json:"type"`
	Status            string               `json:"status"`
	Term              TermView             `json:"term"`
	Structure         StructureView        `json:"structure"`
	Representatives   []RepresentativeView `json:"representatives"`
	Policies          PoliciesView         `json:"policies"`
	VotingMemberCount int                  `json:"voting_member_count"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

type ShoraListResponse struct {
	Items []ShoraResponse `json:"items"`
}
