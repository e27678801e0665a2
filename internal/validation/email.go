// Package validation содержит проверки входных данных на границе API.
package validation

import "strings"

// IsValidEmail проверяет, что строка выглядит как адрес электронной почты.
// Проверка намеренно нестрогая: единственный символ @, непустая локальная
// часть и домен с точкой.
func IsValidEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " \t") {
		return false
	}

	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}

	domain := email[at+1:]
	if domain == "" || !strings.Contains(domain, ".") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}

	return true
}
