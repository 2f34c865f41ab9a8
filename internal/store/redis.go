package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/utils"
	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// Redis implements Store on Redis. Session rows are hashes; SERP slots use
// HSETNX; opportunities keep a per-session domain hash plus an ordered list,
// both written by one Lua script.
type Redis struct {
	client *redis.Client
	prefix string
	logger logging.Logger
}

var transitionScript = redis.NewScript(`
local st = redis.call('HGET', KEYS[1], 'status')
if not st then
  return {-1, ''}
end
if st ~= 'running' then
  return {0, st}
end
redis.call('HSET', KEYS[1], 'status', ARGV[1], 'reason', ARGV[2], 'completed', ARGV[3])
return {1, st}
`)

var insertSessionScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'status', ARGV[1], 'config', ARGV[2], 'reason', ARGV[3], 'started', ARGV[4], 'completed', ARGV[5])
return 1
`)

var insertSERPScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
return redis.call('HSETNX', KEYS[2], ARGV[1], ARGV[2])
`)

var insertOpportunityScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
if redis.call('HSETNX', KEYS[2], ARGV[1], '1') == 0 then
  return 0
end
redis.call('RPUSH', KEYS[3], ARGV[2])
return 1
`)

// NewRedis connects to Redis and pings it.
func NewRedis(ctx context.Context, cfg RedisConfig, logger logging.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisFromClient(client, cfg.KeyPrefix, logger), nil
}

// NewRedisFromClient wraps an existing client. The store owns it afterwards.
func NewRedisFromClient(client *redis.Client, prefix string, logger logging.Logger) *Redis {
	if prefix == "" {
		prefix = "linkscout:"
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Redis{client: client, prefix: prefix, logger: logger}
}

func (r *Redis) sessionKey(id string) string    { return r.prefix + "session:" + id }
func (r *Redis) serpKey(id string) string       { return r.prefix + "serp:" + id }
func (r *Redis) oppDomainsKey(id string) string { return r.prefix + "opp_domains:" + id }
func (r *Redis) oppListKey(id string) string    { return r.prefix + "opps:" + id }
func (r *Redis) historyKey(domain string) string {
	return r.prefix + "competitor:" + utils.DomainKey(domain)
}

func (r *Redis) InsertSession(ctx context.Context, s *model.ScanSession) error {
	cfg, err := json.Marshal(s.Config.Normalized())
	if err != nil {
		return persistErr("insert session", err)
	}
	completed := ""
	if s.CompletedAt != nil {
		completed = strconv.FormatInt(s.CompletedAt.UnixNano(), 10)
	}
	created, err := insertSessionScript.Run(ctx, r.client, []string{r.sessionKey(s.SessionID)},
		string(s.Status),
		string(cfg),
		s.FailureReason,
		strconv.FormatInt(s.StartedAt.UnixNano(), 10),
		completed,
	).Int()
	if err != nil {
		return persistErr("insert session", err)
	}
	if created == 0 {
		return persistErr("insert session", errors.New("duplicate session id "+s.SessionID))
	}
	return nil
}

func (r *Redis) GetSession(ctx context.Context, id string) (*model.ScanSession, error) {
	fields, err := r.client.HGetAll(ctx, r.sessionKey(id)).Result()
	if err != nil {
		return nil, persistErr("get session", err)
	}
	if len(fields) == 0 {
		return nil, &model.SessionNotFoundError{SessionID: id}
	}

	sess := &model.ScanSession{
		SessionID:     id,
		Status:        model.SessionStatus(fields["status"]),
		FailureReason: fields["reason"],
	}
	if raw := fields["config"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &sess.Config); err != nil {
			return nil, persistErr("decode session config", err)
		}
	}
	if ns, err := strconv.ParseInt(fields["started"], 10, 64); err == nil {
		sess.StartedAt = time.Unix(0, ns).UTC()
	}
	if ns, err := strconv.ParseInt(fields["completed"], 10, 64); err == nil {
		t := time.Unix(0, ns).UTC()
		sess.CompletedAt = &t
	}
	return sess, nil
}

func (r *Redis) TransitionSession(ctx context.Context, id string, to model.SessionStatus, reason string, at time.Time) (*model.ScanSession, error) {
	if !to.Terminal() {
		cur, err := r.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &model.InvalidStateTransitionError{SessionID: id, From: cur.Status, To: to}
	}

	res, err := transitionScript.Run(ctx, r.client, []string{r.sessionKey(id)},
		string(to), reason, strconv.FormatInt(at.UnixNano(), 10)).Slice()
	if err != nil {
		return nil, persistErr("transition session", err)
	}
	if len(res) != 2 {
		return nil, persistErr("transition session", fmt.Errorf("unexpected script reply %v", res))
	}
	code, _ := res[0].(int64)
	prev, _ := res[1].(string)
	switch code {
	case -1:
		return nil, &model.SessionNotFoundError{SessionID: id}
	case 0:
		return nil, &model.InvalidStateTransitionError{SessionID: id, From: model.SessionStatus(prev), To: to}
	}
	return r.GetSession(ctx, id)
}

func (r *Redis) InsertSERPResult(ctx context.Context, res *model.SERPResult) (bool, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return false, persistErr("insert serp result", err)
	}
	n, err := insertSERPScript.Run(ctx, r.client,
		[]string{r.sessionKey(res.SessionID), r.serpKey(res.SessionID)},
		serpSlot(res.Keyword, res.Position), string(payload)).Int64()
	if err != nil {
		return false, persistErr("insert serp result", err)
	}
	if n < 0 {
		return false, &model.SessionNotFoundError{SessionID: res.SessionID}
	}
	return n == 1, nil
}

func (r *Redis) ListSERPResults(ctx context.Context, sessionID string) ([]model.SERPResult, error) {
	if err := r.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}
	vals, err := r.client.HVals(ctx, r.serpKey(sessionID)).Result()
	if err != nil {
		return nil, persistErr("list serp results", err)
	}
	out := make([]model.SERPResult, 0, len(vals))
	for _, raw := range vals {
		var res model.SERPResult
		if err := json.Unmarshal([]byte(raw), &res); err != nil {
			return nil, persistErr("decode serp result", err)
		}
		out = append(out, res)
	}
	sortSERP(out)
	return out, nil
}

func (r *Redis) InsertOpportunity(ctx context.Context, sessionID string, o *model.LinkOpportunity) (bool, error) {
	payload, err := json.Marshal(o)
	if err != nil {
		return false, persistErr("insert opportunity", err)
	}
	n, err := insertOpportunityScript.Run(ctx, r.client,
		[]string{r.sessionKey(sessionID), r.oppDomainsKey(sessionID), r.oppListKey(sessionID)},
		utils.DomainKey(o.Domain), string(payload)).Int64()
	if err != nil {
		return false, persistErr("insert opportunity", err)
	}
	if n < 0 {
		return false, &model.SessionNotFoundError{SessionID: sessionID}
	}
	return n == 1, nil
}

func (r *Redis) ListOpportunities(ctx context.Context, sessionID string) ([]model.LinkOpportunity, error) {
	if err := r.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}
	vals, err := r.client.LRange(ctx, r.oppListKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, persistErr("list opportunities", err)
	}
	out := make([]model.LinkOpportunity, 0, len(vals))
	for _, raw := range vals {
		var o model.LinkOpportunity
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, persistErr("decode opportunity", err)
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *Redis) InsertCompetitorAnalysis(ctx context.Context, a *model.CompetitorAnalysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return persistErr("insert competitor analysis", err)
	}
	if err := r.client.LPush(ctx, r.historyKey(a.CompetitorDomain), string(payload)).Err(); err != nil {
		return persistErr("insert competitor analysis", err)
	}
	return nil
}

func (r *Redis) ListCompetitorAnalyses(ctx context.Context, domain string, limit int) ([]model.CompetitorAnalysis, error) {
	vals, err := r.client.LRange(ctx, r.historyKey(domain), 0, -1).Result()
	if err != nil {
		return nil, persistErr("list competitor analyses", err)
	}
	out := make([]model.CompetitorAnalysis, 0, len(vals))
	for _, raw := range vals {
		var a model.CompetitorAnalysis
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, persistErr("decode competitor analysis", err)
		}
		out = append(out, a)
	}
	return newestFirst(out, limit), nil
}

func (r *Redis) requireSession(ctx context.Context, id string) error {
	n, err := r.client.Exists(ctx, r.sessionKey(id)).Result()
	if err != nil {
		return persistErr("get session", err)
	}
	if n == 0 {
		return &model.SessionNotFoundError{SessionID: id}
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
