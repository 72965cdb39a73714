package entities

import "time"

// Place is a geographic/administrative scope owning exactly one shora.
type Place struct {
	ID          string
	Name        string
	NamePersian string
	Province    string
	County      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ShoraType string

const (
	ShoraTypeMain    ShoraType = "main"
	ShoraTypeBranch  ShoraType = "branch"
	ShoraTypeSpecial ShoraType = "special"
)

type ShoraStatus string

const (
	ShoraStatusActive    ShoraStatus = "active"
	ShoraStatusInactive  ShoraStatus = "inactive"
	ShoraStatusSuspended ShoraStatus = "suspended"
	ShoraStatusElection  ShoraStatus = "election"
)

type RepresentativeRole string

const (
	RoleChairman     RepresentativeRole = "chairman"
	RoleViceChairman RepresentativeRole = "vice-chairman"
	RoleSecretary    RepresentativeRole = "secretary"
	RoleMember       RepresentativeRole = "member"
	RoleAlternate    RepresentativeRole = "alternate"
)

type RepresentativePosition string

const (
	PositionMain      RepresentativePosition = "main"
	PositionAlternate RepresentativePosition = "alternate"
)

// Permissions a seat may carry. "vote" marks voting members counted toward
// roster quorum.
const (
	PermissionRead    = "read"
	PermissionWrite   = "write"
	PermissionDelete  = "delete"
	PermissionApprove = "approve"
	PermissionVote    = "vote"
	PermissionManage  = "manage"
)

type VotingMethod string

const (
	VotingMajority  VotingMethod = "majority"
	VotingUnanimous VotingMethod = "unanimous"
	VotingTwoThirds VotingMethod = "two-thirds"
)

type Representative struct {
	UserID      string
	Role        RepresentativeRole
	Position    RepresentativePosition
	Permissions []string
	IsActive    bool
	StartDate   time.Time
	EndDate     *time.Time
}

func (r Representative) HasPermission(permission string) bool {
	if !r.IsActive {
		return false
	}
	for _, granted := range r.Permissions {
		if granted == permission {
			return true
		}
	}
	return false
}

type Term struct {
	StartDate time.Time
	EndDate   time.Time
	Number    int
}

type Structure struct {
	TotalSeats               int
	MainRepresentatives      int
	AlternateRepresentatives int
}

type Policies struct {
	Quorum       int
	VotingMethod VotingMethod
}

// Shora is the elected council body for a place.
type Shora struct {
	ID              string
	PlaceID         string
	Name            string
	NamePersian     string
	Type            ShoraType
	Status          ShoraStatus
	Term            Term
	Structure       Structure
	Representatives []Representative
	Policies        Policies
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (s Shora) Representative(userID string) (Representative, bool) {
	for _, rep := range s.Representatives {
		if rep.UserID == userID {
			return rep, true
		}
	}
	return Representative{}, false
}

func (s Shora) IsRepresentative(userID string) bool {
	rep, found := s.Representative(userID)
	return found && rep.IsActive
}

// ActiveRepresentativeCount counts seated, active representatives.
func (s Shora) ActiveRepresentativeCount() int {
	count := 0
	for _, rep := range s.Representatives {
		if rep.IsActive {
			count++
		}
	}
	return count
}

// VotingMemberCount counts active representatives holding the vote
// permission; this is the roster size used for quorum.
func (s Shora) VotingMemberCount() int {
	count := 0
	for _, rep := range s.Representatives {
		if rep.HasPermission(PermissionVote) {
			count++
		}
	}
	return count
}
