package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func CompletionKey(digest string) string {
	return fmt.Sprintf("completion:%s", digest)
}

func BatchProgressKey(batchID uuid.UUID) string {
	return fmt.Sprintf("batch:%s:progress", batchID)
}

func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}
