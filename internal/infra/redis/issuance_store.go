package redis

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/fardannozami/scoopquest/internal/domain"
	"github.com/fardannozami/scoopquest/pkg/errors"
	"github.com/fardannozami/scoopquest/pkg/log"
)

const keyPrefix = "issuance:"

// saveScript refuses to overwrite a record that is already issued.
var saveScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
	local ok, rec = pcall(cjson.decode, cur)
	if ok and rec.status == 'issued' then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

// Connect opens a client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "ping to redis")
	}
	log.Infof("redis connected at %s (db %d)", addr, db)
	return client, nil
}

// IssuanceStore keeps reward issuance records in Redis so several bot
// instances share one view of what was already paid.
type IssuanceStore struct {
	client *redis.Client
}

func NewIssuanceStore(client *redis.Client) *IssuanceStore {
	return &IssuanceStore{client: client}
}

func (s *IssuanceStore) GetIssuance(ctx context.Context, key string) (*domain.RewardIssuance, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get issuance %s", key)
	}

	var ri domain.RewardIssuance
	if err := json.Unmarshal(raw, &ri); err != nil {
		return nil, errors.Wrapf(err, "decode issuance %s", key)
	}
	return &ri, nil
}

func (s *IssuanceStore) SaveIssuance(ctx context.Context, ri *domain.RewardIssuance) error {
	raw, err := json.Marshal(ri)
	if err != nil {
		return errors.WithStack(err)
	}
	err = saveScript.Run(ctx, s.client, []string{keyPrefix + ri.Key}, raw).Err()
	return errors.Wrapf(err, "save issuance %s", ri.Key)
}
