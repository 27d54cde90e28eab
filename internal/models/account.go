package models

import (
	"fmt"
	"strconv"
)

// Account holds the connection identity for one remote mailbox.
// It is read once at startup and never mutated afterwards.
type Account struct {
	User     string
	Password string
	Host     string
	Port     int
	TLS      bool
}

// Addr returns the host:port dial address for the account.
func (a Account) Addr() string {
	return a.Host + ":" + strconv.Itoa(a.Port)
}

// String returns a loggable description of the account without credentials.
func (a Account) String() string {
	return fmt.Sprintf("%s@%s:%d", a.User, a.Host, a.Port)
}
