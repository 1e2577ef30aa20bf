package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// KeyFunc extrai a identidade do cliente da requisição.
type KeyFunc func(r *http.Request) string

// ClientIP identifica o cliente pelo primeiro IP do X-Forwarded-For (cliente
// original) ou, sem o header, pelo endereço da conexão.
//
// Nada é validado: um primeiro token vazio ou malformado vira o próprio bucket,
// e sem header e sem RemoteAddr o resultado é "".
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// DefaultKeyFunc usa o valor do header keyHeader quando presente e cai para
// ClientIP caso contrário. Com keyHeader vazio é o próprio ClientIP.
func DefaultKeyFunc(keyHeader string) KeyFunc {
	if keyHeader == "" {
		return ClientIP
	}
	return func(r *http.Request) string {
		if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
			return v
		}
		return ClientIP(r)
	}
}
