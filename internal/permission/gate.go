// Package permission decides which users may view, inspect or manage which
// servers. Policies are read from a YAML or JSON file and evaluated with
// casbin.
package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/faciam-dev/redisboard/internal/metrics"
)

// Actions understood by the gate.
const (
	ActView    = "view"
	ActInspect = "inspect"
	ActManage  = "manage"
	ActAll     = "*"
)

// AnyServer addresses every server, including ones not yet registered.
const AnyServer = "*"

// Policy is the file format of a permission policy.
//
//	rules:
//	  - subject: ops
//	    servers: ["*"]
//	    actions: [view, inspect]
//	members:
//	  alice: [ops]
type Policy struct {
	Rules   []Rule              `yaml:"rules" json:"rules"`
	Members map[string][]string `yaml:"members" json:"members"`
}

// Rule grants actions on servers to a user or role.
type Rule struct {
	Subject string   `yaml:"subject" json:"subject"`
	Servers []string `yaml:"servers" json:"servers"`
	Actions []string `yaml:"actions" json:"actions"`
}

// Gate answers permission questions. A Gate without a policy allows every
// identified user.
type Gate struct {
	path   string
	logger *slog.Logger
	enf    atomic.Pointer[casbin.Enforcer]
}

// Open returns a gate that allows every identified user.
func Open() *Gate {
	return &Gate{logger: slog.Default()}
}

// NewGate builds a gate from an in-memory policy.
func NewGate(p *Policy) (*Gate, error) {
	e, err := newEnforcer(p)
	if err != nil {
		return nil, err
	}
	g := &Gate{logger: slog.Default()}
	g.enf.Store(e)
	return g, nil
}

// LoadFile builds a gate from the policy at path.
func LoadFile(path string, logger *slog.Logger) (*Gate, error) {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gate{path: path, logger: logger}
	if err := g.load(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Gate) load() error {
	b, err := os.ReadFile(g.path)
	if err != nil {
		return err
	}
	p, err := ParsePolicy(b)
	if err != nil {
		return fmt.Errorf("parse %s: %w", g.path, err)
	}
	e, err := newEnforcer(p)
	if err != nil {
		return err
	}
	g.enf.Store(e)
	return nil
}

// Watch reloads the policy file whenever it changes until ctx is done. A
// policy that fails to load leaves the previous one in effect.
func (g *Gate) Watch(ctx context.Context) error {
	if g.path == "" {
		return errors.New("permission: gate has no policy file")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(g.path)); err != nil {
		watcher.Close()
		return err
	}
	target := filepath.Clean(g.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case ev := <-watcher.Events:
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := g.load(); err != nil {
					metrics.PolicyReloads.WithLabelValues("error").Inc()
					g.logger.Warn("reload permission policy", "err", err)
				} else {
					metrics.PolicyReloads.WithLabelValues("ok").Inc()
					g.logger.Info("permission policy reloaded", "path", g.path)
				}
			case err := <-watcher.Errors:
				if err != nil {
					g.logger.Warn("permission policy watch error", "err", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// ParsePolicy parses YAML or JSON.
func ParsePolicy(b []byte) (*Policy, error) {
	var p Policy
	if json.Valid(b) {
		if err := json.Unmarshal(b, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func newEnforcer(p *Policy) (*casbin.Enforcer, error) {
	m := model.NewModel()
	m.AddDef("r", "r", "sub, obj, act")
	m.AddDef("p", "p", "sub, obj, act")
	m.AddDef("g", "g", "_, _")
	m.AddDef("e", "e", "some(where (p.eft == allow))")
	m.AddDef("m", "m", "g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == \"*\")")
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	for _, r := range p.Rules {
		if r.Subject == "" {
			return nil, errors.New("permission: rule without subject")
		}
		for _, srv := range r.Servers {
			for _, act := range r.Actions {
				if _, err := e.AddPolicy(r.Subject, object(srv), act); err != nil {
					return nil, err
				}
			}
		}
	}
	for user, roles := range p.Members {
		for _, role := range roles {
			if _, err := e.AddGroupingPolicy(user, role); err != nil {
				return nil, err
			}
		}
	}
	return e, nil
}

func object(server string) string { return "servers/" + server }

// ServerObject names a registered server.
func ServerObject(id int64) string { return strconv.FormatInt(id, 10) }

// Allowed reports whether user may perform act on server, which is a
// ServerObject or AnyServer.
func (g *Gate) Allowed(user, server, act string) bool {
	if user == "" {
		return false
	}
	e := g.enf.Load()
	if e == nil {
		return true
	}
	ok, err := e.Enforce(user, object(server), act)
	if err != nil {
		g.logger.Error("enforce", "user", user, "server", server, "act", act, "err", err)
		return false
	}
	return ok
}

// CanView reports whether user may see the server in listings.
func (g *Gate) CanView(user string, id int64) bool {
	return g.Allowed(user, ServerObject(id), ActView)
}

// CanInspect reports whether user may browse the databases and keys of the
// server. Inspection requires view permission as well.
func (g *Gate) CanInspect(user string, id int64) bool {
	return g.CanView(user, id) && g.Allowed(user, ServerObject(id), ActInspect)
}

// CanManage reports whether user may change the server. id 0 asks about
// registering new servers.
func (g *Gate) CanManage(user string, id int64) bool {
	if id == 0 {
		return g.Allowed(user, AnyServer, ActManage)
	}
	return g.Allowed(user, ServerObject(id), ActManage)
}
