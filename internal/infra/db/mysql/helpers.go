package mysql

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Server errors that mean the value cannot be stored at its current size.
const (
	errDataTooLong       = 1406 // ER_DATA_TOO_LONG
	errNetPacketTooLarge = 1153 // ER_NET_PACKET_TOO_LARGE
)

// isCapacityError reports whether err is the server refusing a value for its size.
func isCapacityError(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == errDataTooLong || me.Number == errNetPacketTooLarge
}
