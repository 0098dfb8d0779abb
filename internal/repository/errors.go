// Package repository defines error values that are reused across the
// repositories so that the service and handler layers can tell failure
// scenarios apart without looking at driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrBuildingNotFound = errors.New("building not found")
	ErrRoomNotFound     = errors.New("room not found")
	ErrPoiNotFound      = errors.New("poi not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameExists   = errors.New("username already exists")
	ErrRefreshInvalid   = errors.New("refresh token invalid")
)

// ErrConflict is returned when a write lost a race against a concurrent
// write on the same unique key (duplicate insert or deadlock victim).
// The operation left no changes behind and may be retried.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers the repositories react to.
const (
	errDupEntry        = 1062
	errLockDeadlock    = 1213
	errNoReferencedRow = 1452
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicateKey(err error) bool { return mysqlErrNumber(err) == errDupEntry }

func isDeadlock(err error) bool { return mysqlErrNumber(err) == errLockDeadlock }

func isMissingParent(err error) bool { return mysqlErrNumber(err) == errNoReferencedRow }
