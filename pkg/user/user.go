package user

// User is the authenticated caller. Id matches the person id recorded on
// time entries and expenses.
type User struct {
	Id          string
	DisplayName string
}
