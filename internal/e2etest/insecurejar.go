package e2etest

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

// insecureJar keeps cookies marked Secure over plain HTTP so that tests can run against a server configured for
// production cookies.
type insecureJar struct {
	*cookiejar.Jar
}

func newInsecureJar() insecureJar {
	// cookiejar.New never fails without options.
	jar, _ := cookiejar.New(nil)
	return insecureJar{Jar: jar}
}

func (j insecureJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	relaxed := make([]*http.Cookie, len(cookies))
	for i, cookie := range cookies {
		c := *cookie
		c.Secure = false
		relaxed[i] = &c
	}
	j.Jar.SetCookies(u, relaxed)
}
