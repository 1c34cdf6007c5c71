package core

// Account is a stored login: the session identity plus its bcrypt hash.
type Account struct {
	User         User
	PasswordHash string
}
