package config

import (
    "context"
    "crypto/tls"
    "net"
    "os"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from REDIS_URL, or from
// REDIS_HOST/REDIS_PORT/REDIS_PASSWORD/REDIS_DB/REDIS_TLS when no URL
// is given. Redis backs rate limiting and the station catalog cache;
// both degrade gracefully, so a failed ping returns nil instead of an
// error and callers run without Redis.
func NewRedisClient() *redis.Client {
    var opts *redis.Options
    if url := os.Getenv("REDIS_URL"); url != "" {
        parsed, err := redis.ParseURL(url)
        if err != nil {
            return nil
        }
        opts = parsed
    } else {
        addr := envStr("REDIS_ADDR", "localhost:6379")
        if host := os.Getenv("REDIS_HOST"); host != "" {
            addr = net.JoinHostPort(host, envStr("REDIS_PORT", "6379"))
        }
        opts = &redis.Options{
            Addr:     addr,
            Password: os.Getenv("REDIS_PASSWORD"),
            DB:       envInt("REDIS_DB", 0),
        }
        if envBool("REDIS_TLS", false) {
            opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
        }
    }

    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        client.Close()
        return nil
    }
    return client
}
