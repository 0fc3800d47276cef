package service

import (
	"testing"

	"paygate/api/internal/config"
	"paygate/api/internal/logger"
)

func TestParseProxy(t *testing.T) {
	proxies := []struct {
		str   string
		valid bool
	}{
		{"login:password@ip:port", true},
		{"login:password:ip:port", false},
		{"login", false},
		{"login:password:", false},
		{"login:password:127.0.0.1:1234:", false},
		{"login:password@127.0.0.1:1234", true},
		{"", false},
		{" ", false},
	}

	s := WebhookSenderService{}

	for _, i := range proxies {
		_, err := s.parseProxy(i.str)
		if err != nil && i.valid {
			t.Fatal(err)
		}
		if err == nil && !i.valid {
			t.Fatalf("parsed invalid proxy: %q", i.str)
		}
	}

}

func TestUpdateProxyList(t *testing.T) {
	s := NewWebhookSenderService(nil, logger.Init(&config.Config{Prod_env: false}))

	s.UpdateList([]string{"a:b@127.0.0.1:1080", "c:d@127.0.0.1:1081"})

	if len(s.GetList()) != 2 {
		t.Fatal("proxy list not replaced")
	}

	// invalid entries are dropped, not stored
	s.UpdateList([]string{"a:b@127.0.0.1:1080", "garbage"})
	if len(s.GetList()) != 1 {
		t.Fatal("invalid proxy kept in list")
	}
}
