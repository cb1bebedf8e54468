package practice

import (
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"
)

const (
	WordListKey = "wordList"
	StatsKey    = "stats"
)

// KV is durable key-value storage. db.Store implements it.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// Persistent stores whole JSON values in a KV and never fails: reads fall
// back, writes that fail are dropped.
type Persistent struct {
	kv     KV
	logger *log.Logger
}

func NewPersistent(kv KV, logger *log.Logger) *Persistent {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Persistent{kv: kv, logger: logger}
}

// Load decodes key into dst and reports whether it did. dst is left alone
// when the key is missing, unreadable or undecodable.
func (p *Persistent) Load(key string, dst interface{}) bool {
	if p == nil || p.kv == nil {
		return false
	}
	data, err := p.kv.Get(key)
	if err != nil {
		p.logger.Debug("store read failed", "key", key, "error", err)
		return false
	}
	if len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		p.logger.Debug("store value undecodable", "key", key, "error", err)
		return false
	}
	return true
}

func (p *Persistent) Save(key string, v interface{}) {
	if p == nil || p.kv == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Debug("store value unencodable", "key", key, "error", err)
		return
	}
	if err := p.kv.Put(key, data); err != nil {
		p.logger.Debug("store write dropped", "key", key, "error", err)
	}
}
