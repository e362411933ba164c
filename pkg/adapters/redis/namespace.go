package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/contextplus"
	"github.com/aretw0/contextplus/pkg/acquisition"
	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

const (
	// DefaultExpiry is applied by Touch.
	DefaultExpiry = 24 * time.Hour

	objKey   = "obj"
	touchKey = "_touch"
)

// Namespace is a node backed by a Redis namespace. It suits data that can be
// lost without harm, such as a login session or a shopping cart.
//
// Objects are JSON encoded into the hash <namespace>:obj.
type Namespace struct {
	contextplus.Base

	// Keys lists the key suffixes owned by the namespace. Touch resets their expiry.
	Keys []string
	// Expiry defaults to DefaultExpiry.
	Expiry time.Duration
	// WorkflowKey is the object holding the workflow state.
	WorkflowKey string
}

// NewNamespace creates a namespace node. An empty name is replaced by a random one.
func NewNamespace(typ *contextplus.Type, parent domain.Node, name string) *Namespace {
	n := &Namespace{}
	n.InitNamespace(n, typ, parent, name)
	return n
}

// InitNamespace initialises a namespace embedded in this.
func (n *Namespace) InitNamespace(this contextplus.Node, typ *contextplus.Type, parent domain.Node, name string) {
	if name == "" {
		name = uuid.NewString()
	}
	n.Init(this, typ, parent, name)
	n.Keys = []string{objKey}
	n.Expiry = DefaultExpiry
	n.WorkflowKey = contextplus.DefaultWorkflowField
}

// Namespace prefixes every key of the node.
func (n *Namespace) Namespace() string {
	return fmt.Sprintf("domain:%s:%s", n.MetaTitle(), n.Name())
}

func (n *Namespace) hashKey() string {
	return n.Namespace() + ":" + objKey
}

func (n *Namespace) client() (backend.UniversalClient, error) {
	return acquisition.As[backend.UniversalClient](n.This, domain.CapRedis)
}

// Touch sets or resets the expiry of every key in Keys.
func (n *Namespace) Touch(ctx context.Context) error {
	rdb, err := n.client()
	if err != nil {
		return err
	}
	pipe := rdb.Pipeline()
	pipe.HSet(ctx, n.hashKey(), touchKey, 1)
	for _, k := range n.Keys {
		pipe.Expire(ctx, n.Namespace()+":"+k, n.Expiry)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to touch namespace %s: %w", n.Namespace(), err)
	}
	return nil
}

// ObjSet stores value under key in the object hash.
func (n *Namespace) ObjSet(ctx context.Context, key string, value any) error {
	rdb, err := n.client()
	if err != nil {
		return err
	}
	buf, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := rdb.HSet(ctx, n.hashKey(), key, buf).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// ObjGet decodes the object stored under key into out. It reports false when
// the key is absent.
func (n *Namespace) ObjGet(ctx context.Context, key string, out any) (bool, error) {
	rdb, err := n.client()
	if err != nil {
		return false, err
	}
	buf, err := rdb.HGet(ctx, n.hashKey(), key).Bytes()
	if errors.Is(err, backend.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

// ObjMGet returns the objects stored under keys, in order. Absent keys yield nil.
func (n *Namespace) ObjMGet(ctx context.Context, keys ...string) ([]any, error) {
	rdb, err := n.client()
	if err != nil {
		return nil, err
	}
	pipe := rdb.Pipeline()
	cmds := make([]*backend.StringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HGet(ctx, n.hashKey(), k)
	}
	// Exec reports backend.Nil for absent fields; each command is checked below.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("failed to get objects: %w", err)
	}

	out := make([]any, len(keys))
	for i, cmd := range cmds {
		buf, err := cmd.Bytes()
		if errors.Is(err, backend.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", keys[i], err)
		}
		if err := json.Unmarshal(buf, &out[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", keys[i], err)
		}
	}
	return out, nil
}

// ObjDictGet is ObjMGet keyed by name.
func (n *Namespace) ObjDictGet(ctx context.Context, keys ...string) (map[string]any, error) {
	values, err := n.ObjMGet(ctx, keys...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(keys))
	for i, k := range keys {
		out[k] = values[i]
	}
	return out, nil
}

// Delete removes every key in Keys.
func (n *Namespace) Delete(ctx context.Context) error {
	rdb, err := n.client()
	if err != nil {
		return err
	}
	keys := make([]string, len(n.Keys))
	for i, k := range n.Keys {
		keys[i] = n.Namespace() + ":" + k
	}
	return rdb.Del(ctx, keys...).Err()
}

// State implements workflow.Storage.
func (n *Namespace) State(ctx context.Context) (string, error) {
	var state string
	found, err := n.ObjGet(ctx, n.WorkflowKey, &state)
	if err != nil {
		return "", err
	}
	if !found || state == "" {
		return n.Type().FallbackState(), nil
	}
	return state, nil
}

// SetState implements workflow.Storage.
func (n *Namespace) SetState(ctx context.Context, state string) error {
	return n.ObjSet(ctx, n.WorkflowKey, state)
}
