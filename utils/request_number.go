// utils/request_number.go
package utils

import "fmt"

// FormatRequestNumber renders the loan request sequence as REQ000001,
// REQ000002, ... The sequence itself comes from the database so numbers
// stay monotonic across restarts.
func FormatRequestNumber(seq int64) string {
	return fmt.Sprintf("REQ%06d", seq)
}
