package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/registration-api/internal/models"
)

var (
	nameKeys   = []string{"name", "full_name", "fullName", "fullname", "الاسم", "الاسم الكامل"}
	phoneKeys  = []string{"phone", "mobile", "phone_number", "phoneNumber", "whatsapp", "رقم الجوال", "الجوال"}
	genderKeys = []string{"gender", "sex", "الجنس"}
)

// recipientFromSubmission reads the contact details an applicant gave in the first stage. Later
// stages never repeat them, so every stage's messaging depends on the stage-1 answers.
func recipientFromSubmission(submission models.Submission) Recipient {
	answers := submission.StageAnswers(models.StageFirst)
	return Recipient{
		Name:   firstAnswer(answers, nameKeys),
		Email:  submission.UserEmail,
		Phone:  firstAnswer(answers, phoneKeys),
		Gender: firstAnswer(answers, genderKeys),
	}
}

func firstAnswer(answers map[string]interface{}, keys []string) string {
	for _, key := range keys {
		value, ok := answers[key]
		if !ok || value == nil {
			continue
		}
		var text string
		switch v := value.(type) {
		case string:
			text = v
		case float64:
			text = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			text = fmt.Sprint(v)
		}
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return ""
}
