package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/newsmaker-api/internal/task"
)

const (
	taskKeyPrefix   = "task:"
	tenantKeyPrefix = "tenant_tasks:"
)

// Hash fields of a task record.
const (
	fieldID        = "id"
	fieldTenant    = "tenant_id"
	fieldState     = "state"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
	fieldResult    = "result"
	fieldError     = "error"
)

// pruneLua drops tenant-set members whose task record has expired.
// KEYS[1] tenant set; ARGV[1] task key prefix.
const pruneLua = `
local function prune(set, prefix)
  for _, id in ipairs(redis.call('SMEMBERS', set)) do
    if redis.call('EXISTS', prefix .. id) == 0 then
      redis.call('SREM', set, id)
    end
  end
  return redis.call('SCARD', set)
end
`

// KEYS[1] tenant set, KEYS[2] task key.
// ARGV[1] task key prefix, ARGV[2] ceiling, ARGV[3] ttl seconds,
// ARGV[4] task id, ARGV[5] tenant id, ARGV[6] timestamp.
var submitScript = goredis.NewScript(pruneLua + `
local active = prune(KEYS[1], ARGV[1])
if active >= tonumber(ARGV[2]) then
  return -active
end
redis.call('HSET', KEYS[2],
  'id', ARGV[4], 'tenant_id', ARGV[5], 'state', 'pending',
  'created_at', ARGV[6], 'updated_at', ARGV[6])
redis.call('EXPIRE', KEYS[2], ARGV[3])
redis.call('SADD', KEYS[1], ARGV[4])
redis.call('EXPIRE', KEYS[1], ARGV[3])
return active + 1
`)

// KEYS[1] task key.
// ARGV[1] target state, ARGV[2] timestamp, ARGV[3] result, ARGV[4] error,
// ARGV[5] "1" when the target is terminal, ARGV[6] tenant key prefix,
// ARGV[7] task id, ARGV[8] ttl seconds, ARGV[9..] states the target may be
// entered from. The task record keeps its remaining lifetime; the tenant set
// is re-armed whenever it is mutated.
var transitionScript = goredis.NewScript(`
local state = redis.call('HGET', KEYS[1], 'state')
if not state then
  return 'expired'
end
local allowed = false
for i = 9, #ARGV do
  if ARGV[i] == state then
    allowed = true
  end
end
if not allowed then
  return 'rejected:' .. state
end
redis.call('HSET', KEYS[1], 'state', ARGV[1], 'updated_at', ARGV[2])
if ARGV[3] ~= '' then
  redis.call('HSET', KEYS[1], 'result', ARGV[3])
end
if ARGV[4] ~= '' then
  redis.call('HSET', KEYS[1], 'error', ARGV[4])
end
if ARGV[5] == '1' then
  local set = ARGV[6] .. redis.call('HGET', KEYS[1], 'tenant_id')
  if redis.call('SREM', set, ARGV[7]) == 1 then
    redis.call('EXPIRE', set, ARGV[8])
  end
end
return 'ok'
`)

// KEYS[1] tenant set; ARGV[1] task key prefix.
var countScript = goredis.NewScript(pruneLua + `
return prune(KEYS[1], ARGV[1])
`)

// Registry is a task.Registry stored in Redis. Task records are hashes under
// task:{id}; each tenant's non-terminal ids live in the set tenant_tasks:{tenant}.
// The scripts address keys they derive themselves, so the client must not be a cluster client.
type Registry struct {
	client goredis.UniversalClient
	config task.RegistryConfig
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

var _ task.Registry = (*Registry)(nil)

// NewRegistry creates a Registry on client.
func NewRegistry(client goredis.UniversalClient, cfg task.RegistryConfig, logger *slog.Logger) (*Registry, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		client: client,
		config: cfg.Normalize(),
		logger: logger.With("component", "redis_registry"),
		now:    time.Now,
		newID:  uuid.NewString,
	}, nil
}

func taskKey(id string) string         { return taskKeyPrefix + id }
func tenantKey(tenantID string) string { return tenantKeyPrefix + tenantID }

// Submit implements task.Registry.
func (r *Registry) Submit(ctx context.Context, tenantID string) (string, error) {
	if tenantID == "" {
		return "", task.ErrEmptyTenant
	}

	id := r.newID()
	ttl := r.ttlSeconds()

	n, err := submitScript.Run(ctx, r.client,
		[]string{tenantKey(tenantID), taskKey(id)},
		taskKeyPrefix, r.config.AdmissionCeiling, ttl, id, tenantID, r.timestamp(),
	).Int64()
	if err != nil {
		return "", fmt.Errorf("submit task: %w", err)
	}
	if n <= 0 {
		return "", fmt.Errorf("%w: %d active tasks", task.ErrAdmissionDenied, -n)
	}

	r.logger.DebugContext(ctx, "task admitted",
		"task_id", id,
		"tenant_id", tenantID,
		"active", n)
	return id, nil
}

// Transition implements task.Registry.
func (r *Registry) Transition(
	ctx context.Context,
	id string,
	to task.State,
	result json.RawMessage,
	errMsg string,
) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", task.ErrInvalidState, to)
	}

	terminal := "0"
	if to.IsTerminal() {
		terminal = "1"
	}
	args := []any{string(to), r.timestamp(), string(result), errMsg, terminal, tenantKeyPrefix, id, r.ttlSeconds()}
	for _, from := range sourcesOf(to) {
		args = append(args, string(from))
	}

	outcome, err := transitionScript.Run(ctx, r.client, []string{taskKey(id)}, args...).Text()
	if err != nil {
		return fmt.Errorf("transition task %s: %w", id, err)
	}

	switch {
	case outcome == "ok":
	case outcome == "expired":
		r.logger.WarnContext(ctx, "transition on expired task ignored",
			"task_id", id,
			"state", to)
	default:
		r.logger.WarnContext(ctx, "transition rejected",
			"task_id", id,
			"to", to,
			"outcome", outcome)
	}
	return nil
}

// Get implements task.Registry.
func (r *Registry) Get(ctx context.Context, id string) (*task.Task, error) {
	fields, err := r.client.HGetAll(ctx, taskKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", task.ErrTaskNotFound, id)
	}
	return decodeTask(fields)
}

// ActiveCount implements task.Registry.
func (r *Registry) ActiveCount(ctx context.Context, tenantID string) (int, error) {
	n, err := countScript.Run(ctx, r.client, []string{tenantKey(tenantID)}, taskKeyPrefix).Int()
	if err != nil {
		return 0, fmt.Errorf("count active tasks: %w", err)
	}
	return n, nil
}

func (r *Registry) ttlSeconds() int64 {
	ttl := int64(r.config.TTL / time.Second)
	if ttl < 1 {
		ttl = 1
	}
	return ttl
}

func (r *Registry) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

// sourcesOf lists the states from which to may be entered.
func sourcesOf(to task.State) []task.State {
	var out []task.State
	for _, from := range []task.State{task.StatePending, task.StateProcessing, task.StateReady, task.StateError} {
		if task.CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

func decodeTask(fields map[string]string) (*task.Task, error) {
	t := &task.Task{
		ID:       fields[fieldID],
		TenantID: fields[fieldTenant],
		State:    task.State(fields[fieldState]),
		Error:    fields[fieldError],
	}

	var err error
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, fields[fieldCreatedAt]); err != nil {
		return nil, fmt.Errorf("decode task %s created_at: %w", t.ID, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt]); err != nil {
		return nil, fmt.Errorf("decode task %s updated_at: %w", t.ID, err)
	}
	if raw, ok := fields[fieldResult]; ok && raw != "" {
		t.Result = json.RawMessage(raw)
	}
	return t, nil
}
