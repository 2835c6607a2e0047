package util

// MaskPhone hides the middle digits of a phone number for customer-facing
// views: "5551234567" becomes "5551XXX67". Numbers shorter than six characters
// are returned as-is.
func MaskPhone(phone string) string {
	if len(phone) < 6 {
		return phone
	}

	return phone[:4] + "XXX" + phone[len(phone)-2:]
}
