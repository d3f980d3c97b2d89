package kvstore

import (
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
)

// OpenBackend returns the Backend selected by conf.Store.Driver.
func OpenBackend(conf *core.Config) (Backend, error) {
	switch conf.Store.Driver {
	case core.StoreMemory, "":
		return NewMemoryBackend(conf.Store.QuotaBytes), nil
	case core.StoreBolt:
		return OpenBolt(conf.Store.Path)
	case core.StoreRedis:
		rdb, err := ConnectRedis(conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return nil, err
		}
		return NewRedisBackend(rdb, "coursework:"), nil
	default:
		return nil, errors.Errorf("unknown store driver %q", conf.Store.Driver)
	}
}
