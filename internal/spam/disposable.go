package spam

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

var builtinDisposableDomains = []string{
	"10minutemail.com",
	"burnermail.io",
	"discard.email",
	"dispostable.com",
	"emailondeck.com",
	"fakeinbox.com",
	"getnada.com",
	"grr.la",
	"guerrillamail.com",
	"guerrillamail.info",
	"guerrillamail.net",
	"mailinator.com",
	"maildrop.cc",
	"mailnesia.com",
	"mintemail.com",
	"mohmal.com",
	"mytemp.email",
	"sharklasers.com",
	"spamgourmet.com",
	"tempail.com",
	"temp-mail.org",
	"tempmail.com",
	"tempr.email",
	"throwawaymail.com",
	"trashmail.com",
	"yopmail.com",
	"yopmail.fr",
}

// DisposableList is a blocklist of throwaway-mailbox domains. Subdomains of
// a listed registrable domain are blocked too.
type DisposableList struct {
	domains map[string]struct{}
}

// NewDisposableList returns the built-in blocklist extended with extra.
func NewDisposableList(extra ...string) *DisposableList {
	l := &DisposableList{domains: make(map[string]struct{}, len(builtinDisposableDomains)+len(extra))}
	for _, d := range builtinDisposableDomains {
		l.add(d)
	}
	for _, d := range extra {
		l.add(d)
	}
	return l
}

func (l *DisposableList) add(domain string) {
	domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain != "" {
		l.domains[domain] = struct{}{}
	}
}

// Blocked reports whether the email's domain is disposable.
func (l *DisposableList) Blocked(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := strings.Trim(strings.ToLower(email[at+1:]), ".")
	if _, ok := l.domains[domain]; ok {
		return true
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil || registrable == domain {
		return false
	}
	_, ok := l.domains[registrable]
	return ok
}
