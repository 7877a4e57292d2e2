package pending

import (
	"fmt"
	"strings"

	"github.com/nadzzz/asistan/internal/reminder"
)

const (
	reminderFailedText    = "Hatırlatıcı oluşturulurken bir hata oluştu. Lütfen tekrar deneyin."
	reminderCancelledText = "Hatırlatıcı oluşturma iptal edildi."
	launchFailedFormat    = "%s açılırken bir hata oluştu."
	launchCancelledFormat = "%s açma işlemi iptal edildi."
)

func reminderCreatedText(r reminder.Reminder) string {
	var b strings.Builder
	b.WriteString("Hatırlatıcı başarıyla oluşturuldu:\n")
	fmt.Fprintf(&b, "- %s\n- %s %s", r.Title, r.Date, r.Time)
	if r.Description != "" {
		fmt.Fprintf(&b, "\n- %s", r.Description)
	}
	return b.String()
}

func launchedText(name, query string, native bool) string {
	switch {
	case query != "" && native:
		return fmt.Sprintf("%s uygulamasında %q araması açıldı.", name, query)
	case query != "":
		return fmt.Sprintf("%s web sayfasında %q araması açıldı.", name, query)
	case native:
		return fmt.Sprintf("%s uygulaması açıldı.", name)
	}
	return fmt.Sprintf("%s web sayfası açıldı.", name)
}
