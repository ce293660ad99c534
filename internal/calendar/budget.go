package calendar

import "sync/atomic"

// StagingBudget — общий лимит байт подготовленных файлов всех сессий
// процесса. Подготовленные файлы хранятся в памяти до загрузки, лимит
// одной сессии не ограничивает их сумму по всем кэшированным контроллерам.
// nil-бюджет ничего не ограничивает.
type StagingBudget struct {
	limit int64
	used  atomic.Int64
}

// NewStagingBudget создаёт бюджет на limit байт (0 — без лимита).
func NewStagingBudget(limit int64) *StagingBudget {
	return &StagingBudget{limit: limit}
}

// Used возвращает занятый объём.
func (b *StagingBudget) Used() int64 {
	if b == nil {
		return 0
	}
	return b.used.Load()
}

// reserve занимает n байт. false — бюджет исчерпан, ничего не занято.
func (b *StagingBudget) reserve(n int64) bool {
	if b == nil || n <= 0 {
		return true
	}
	for {
		used := b.used.Load()
		if b.limit > 0 && used+n > b.limit {
			return false
		}
		if b.used.CompareAndSwap(used, used+n) {
			stagedBytes.Set(float64(used + n))
			return true
		}
	}
}

// release возвращает n байт.
func (b *StagingBudget) release(n int64) {
	if b == nil || n <= 0 {
		return
	}
	stagedBytes.Set(float64(b.used.Add(-n)))
}
