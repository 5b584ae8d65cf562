package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009
	TooManyRequests  Code = 100010

	// Settlement codes
	InvalidState    Code = 200001
	BudgetExhausted Code = 200002
	UserBlocked     Code = 200003
	RetryCooldown   Code = 200004
	AlreadyRejected Code = 200005
	Collision       Code = 200006
)
