package ordernum

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generate возвращает номер заказа вида ORD-YYYYMMDD-XXXXXXXX,
// где суффикс — первые 8 символов случайного UUID в верхнем регистре.
// Уникальность перед записью не проверяется: единственным арбитром
// остаётся уникальное ограничение в БД.
func Generate(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
