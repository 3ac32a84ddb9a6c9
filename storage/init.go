package storage

import (
	"shiftpulse/storage/mq"
	"shiftpulse/storage/redis"
)

// 统一 init storage 层

func Init() error {
	if err := redis.Init(); err != nil {
		return err
	}

	if err := mq.Init(); err != nil {
		return err
	}

	return nil
}
