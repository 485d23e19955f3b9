package whatsapp

import "strings"

// SaudiCountryCode replaces the national trunk prefix of local mobile numbers.
const SaudiCountryCode = "966"

var phoneNoise = strings.NewReplacer(" ", "", "\t", "", "-", "", "(", "", ")", "")

// NormalizePhone converts a user-entered number into the international digits-only form
// expected by the gateway. "+966 50-123-4567", "0501234567" and "501234567" all become
// "966501234567".
func NormalizePhone(raw string) string {
	phone := phoneNoise.Replace(strings.TrimSpace(raw))
	phone = strings.TrimPrefix(phone, "+")
	phone = strings.TrimPrefix(phone, "00")

	switch {
	case strings.HasPrefix(phone, "05") && len(phone) == 10:
		phone = SaudiCountryCode + phone[1:]
	case strings.HasPrefix(phone, "5") && len(phone) == 9:
		phone = SaudiCountryCode + phone
	}

	return phone
}

// TemplateForGender suffixes a template name with _m or _f when the gender is known.
func TemplateForGender(template, gender string) string {
	template = strings.TrimSpace(template)
	if template == "" {
		return ""
	}

	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male", "m", "ذكر":
		return template + "_m"
	case "female", "f", "أنثى", "انثى":
		return template + "_f"
	default:
		return template
	}
}
