// Package redis provides Redis connection management for the realtime
// presence mirror: connecting with retries and healthchecking.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		// handle error
//	}
//	defer client.Close()
package redis
