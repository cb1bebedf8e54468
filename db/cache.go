package db

import (
	"bytes"
	"encoding/gob"
	"errors"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/lai323/spellstr/offline"
	"github.com/lai323/spellstr/utils"
	"go.etcd.io/bbolt"
)

// CacheStore keeps offline cache namespaces as nested buckets under
// CACHE_BUCKET. Entries are gob encoded with zstd compressed bodies.
type CacheStore struct {
	db  *bbolt.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ offline.Storage = (*CacheStore)(nil)

type cacheEntry struct {
	Status int
	Header map[string][]string
	URL    string
	Body   []byte
	Size   int64
}

func NewCacheStore(path string) (*CacheStore, error) {
	db, err := openBolt(path, CACHE_BUCKET)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, utils.FmtErrorf("create zstd encoder", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, utils.FmtErrorf("create zstd decoder", err)
	}
	return &CacheStore{db: db, enc: enc, dec: dec}, nil
}

func (c *CacheStore) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	c.enc.Close()
	c.dec.Close()
	return c.db.Close()
}

func (c *CacheStore) encode(r *offline.Response) ([]byte, error) {
	e := cacheEntry{
		Status: r.Status,
		Header: r.Header,
		URL:    r.URL,
		Body:   c.enc.EncodeAll(r.Body, nil),
		Size:   int64(len(r.Body)),
	}
	buf := bytes.NewBuffer([]byte{})
	if err := gob.NewEncoder(buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *CacheStore) decode(data []byte) (*offline.Response, error) {
	e := cacheEntry{}
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&e); err != nil {
		return nil, err
	}
	body, err := c.dec.DecodeAll(e.Body, nil)
	if err != nil {
		return nil, utils.FmtErrorf("decompress cached body", err)
	}
	return &offline.Response{Status: e.Status, Header: e.Header, URL: e.URL, Body: body}, nil
}

func (c *CacheStore) Names() ([]string, error) {
	names := []string{}
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(CACHE_BUCKET)).ForEach(func(k, v []byte) error {
			if v == nil {
				names = append(names, string(k))
			}
			return nil
		})
	})
	sort.Strings(names)
	return names, err
}

func (c *CacheStore) Get(namespace, key string) (*offline.Response, error) {
	var data []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		ns := tx.Bucket([]byte(CACHE_BUCKET)).Bucket([]byte(namespace))
		if ns == nil {
			return offline.ErrNotFound
		}
		v := ns.Get([]byte(key))
		if v == nil {
			return offline.ErrNotFound
		}
		data = append(data, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.decode(data)
}

func (c *CacheStore) Put(namespace, key string, r *offline.Response) error {
	return c.PutAll(namespace, map[string]*offline.Response{key: r})
}

// PutAll writes every entry in one transaction, so either all of them land
// or none do.
func (c *CacheStore) PutAll(namespace string, entries map[string]*offline.Response) error {
	encoded := make(map[string][]byte, len(entries))
	for k, r := range entries {
		data, err := c.encode(r)
		if err != nil {
			return err
		}
		encoded[k] = data
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		ns, err := tx.Bucket([]byte(CACHE_BUCKET)).CreateBucketIfNotExists([]byte(namespace))
		if err != nil {
			return err
		}
		for k, data := range encoded {
			if err := ns.Put([]byte(k), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *CacheStore) Delete(namespace string) error {
	err := c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(CACHE_BUCKET)).DeleteBucket([]byte(namespace))
	})
	if errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil
	}
	return err
}

func (c *CacheStore) Usage(namespace string) (offline.Usage, error) {
	u := offline.Usage{Namespace: namespace}
	err := c.db.View(func(tx *bbolt.Tx) error {
		ns := tx.Bucket([]byte(CACHE_BUCKET)).Bucket([]byte(namespace))
		if ns == nil {
			return offline.ErrNotFound
		}
		return ns.ForEach(func(k, v []byte) error {
			e := cacheEntry{}
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&e); err != nil {
				return err
			}
			u.Entries++
			u.Bytes += e.Size
			u.Keys = append(u.Keys, string(k))
			return nil
		})
	})
	return u, err
}
