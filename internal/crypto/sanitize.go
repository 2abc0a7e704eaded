// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

package crypto

import "strings"

// The ciphertext itself cannot carry script payloads, but decrypted
// plaintext is later injected into UI contexts outside this subsystem's
// control. Escaping before encryption and unescaping after decryption
// bounds the stored-XSS risk without every call site having to remember it.
var (
	escaper = strings.NewReplacer(
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#x27;",
		"/", "&#x2F;",
	)

	unescaper = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#x27;", "'",
		"&#x2F;", "/",
	)
)

// EscapeValue applies reversible HTML-entity escaping to string values.
// Non-string values pass through untouched.
func EscapeValue(value any) any {
	if s, ok := value.(string); ok {
		return escaper.Replace(s)
	}
	return value
}

// UnescapeValue reverses [EscapeValue]. Non-string values pass through
// untouched.
func UnescapeValue(value any) any {
	if s, ok := value.(string); ok {
		return unescaper.Replace(s)
	}
	return value
}
