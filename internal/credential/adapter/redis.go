package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"promogen-go/internal/credential"
)

// RedisStore persists credentials in Redis, one JSON document per
// credential under "<prefix>cred:<org>:<id>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(addr, password string, db int, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "promogen:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisStoreWithClient wraps an existing client; used by tests.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "promogen:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Initialize(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error { return r.client.Close() }

func (r *RedisStore) key(orgID, id string) string {
	return r.prefix + "cred:" + orgID + ":" + id
}

func (r *RedisStore) ListCredentials(ctx context.Context, organizationID, provider string) ([]*credential.Credential, error) {
	pattern := r.prefix + "cred:" + organizationID + ":*"
	creds, err := r.scan(ctx, pattern)
	if err != nil {
		return nil, err
	}
	if provider != "" {
		filtered := creds[:0]
		for _, c := range creds {
			if c.Provider == provider {
				filtered = append(filtered, c)
			}
		}
		creds = filtered
	}
	sortByCreation(creds)
	return creds, nil
}

func (r *RedisStore) UpdateStatus(ctx context.Context, id string, status credential.Status) error {
	cred, key, err := r.findByID(ctx, id)
	if err != nil {
		return err
	}
	cred.Status = status
	payload, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, payload, 0).Err()
}

func (r *RedisStore) ListAll(ctx context.Context) ([]*credential.Credential, error) {
	creds, err := r.scan(ctx, r.prefix+"cred:*")
	if err != nil {
		return nil, err
	}
	sortByCreation(creds)
	return creds, nil
}

func (r *RedisStore) Save(ctx context.Context, cred *credential.Credential) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential %s: %w", cred.ID, err)
	}
	return r.client.Set(ctx, r.key(cred.OrganizationID, cred.ID), payload, 0).Err()
}

func (r *RedisStore) scan(ctx context.Context, pattern string) ([]*credential.Credential, error) {
	var creds []*credential.Credential
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		var c credential.Credential
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode credential at %s: %w", iter.Val(), err)
		}
		creds = append(creds, &c)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return creds, nil
}

func (r *RedisStore) findByID(ctx context.Context, id string) (*credential.Credential, string, error) {
	iter := r.client.Scan(ctx, 0, r.prefix+"cred:*:"+id, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, "", err
		}
		var c credential.Credential
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, "", err
		}
		return &c, key, nil
	}
	if err := iter.Err(); err != nil {
		return nil, "", err
	}
	return nil, "", fmt.Errorf("credential %s not found", id)
}
