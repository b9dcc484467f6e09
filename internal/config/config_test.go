package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

func newViper() *viper.Viper {
	v := viper.New()
	Defaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	v := newViper()
	v.Set("anonymous-user", "admin")
	c, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ScanThreshold != 1000 {
		t.Fatalf("threshold = %d", c.ScanThreshold)
	}
	if c.DialTimeout != 3*time.Second {
		t.Fatalf("dial timeout = %v", c.DialTimeout)
	}
	if c.T("servers") != "rb_servers" {
		t.Fatalf("table = %s", c.T("servers"))
	}
}

func TestLoadOrigins(t *testing.T) {
	v := newViper()
	v.Set("jwt-secret", "s")
	v.Set("allowed-origins", " http://a , ,http://b")
	c, err := Load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"http://a", "http://b"}, c.AllowedOrigins); diff != "" {
		t.Fatalf("origins (-want +got)\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*viper.Viper){
		"no identity":        func(v *viper.Viper) {},
		"negative threshold": func(v *viper.Viper) { v.Set("anonymous-user", "a"); v.Set("scan-threshold", -1) },
		"zero page size":     func(v *viper.Viper) { v.Set("anonymous-user", "a"); v.Set("value-page-size", 0) },
		"empty dsn":          func(v *viper.Viper) { v.Set("anonymous-user", "a"); v.Set("db-dsn", "") },
	}
	for name, mut := range cases {
		v := newViper()
		mut(v)
		if _, err := Load(v); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
