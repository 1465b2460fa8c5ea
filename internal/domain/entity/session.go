package entity

// SessionState состояние сессии анализа
type SessionState string

const (
	StateEmpty     SessionState = "empty"     // Снимок не выбран
	StateLoaded    SessionState = "loaded"    // Снимок выбран, анализа нет
	StateAnalyzing SessionState = "analyzing" // Запрос к сервису в пути
	StateSucceeded SessionState = "succeeded" // Есть результат
	StateFailed    SessionState = "failed"    // Есть сообщение об ошибке
)

// Session хранит состояние одной сессии анализа оператора.
//
// Поля состояния закрыты и меняются только методами переходов, поэтому
// результат и ошибка никогда не заданы одновременно, а снимок есть во всех
// состояниях, кроме StateEmpty. Каждый Load и Reset увеличивает поколение:
// асинхронные операции, запущенные в старом поколении, отбрасываются.
type Session struct {
	OperatorID int64 // Telegram User ID
	ChatID     int64 // Telegram Chat ID

	state      SessionState
	generation uint64
	image      *ImageFile
	preview    string
	result     *AnalysisResult
	failure    string
}

// SessionKey идентифицирует сессию: оператор в конкретном чате.
// У одного оператора в разных чатах разные сессии, поэтому результат
// всегда уходит в тот чат, где его запросили.
type SessionKey struct {
	OperatorID int64
	ChatID     int64
}

// NewSession создаёт пустую сессию
func NewSession(operatorID, chatID int64) *Session {
	return &Session{
		OperatorID: operatorID,
		ChatID:     chatID,
		state:      StateEmpty,
	}
}

// Key ключ сессии
func (s *Session) Key() SessionKey {
	return SessionKey{OperatorID: s.OperatorID, ChatID: s.ChatID}
}

// State текущее состояние
func (s *Session) State() SessionState {
	return s.state
}

// Generation текущее поколение
func (s *Session) Generation() uint64 {
	return s.generation
}

// Load выбирает новый снимок. Предыдущие результат, ошибка и превью сбрасываются.
func (s *Session) Load(image ImageFile) uint64 {
	s.generation++
	s.state = StateLoaded
	s.image = &image
	s.preview = ""
	s.result = nil
	s.failure = ""
	return s.generation
}

// AttachPreview сохраняет превью, если поколение не устарело.
func (s *Session) AttachPreview(generation uint64, uri string) bool {
	if generation != s.generation || s.image == nil {
		return false
	}
	s.preview = uri
	return true
}

// BeginAnalysis переводит сессию в StateAnalyzing и возвращает поколение и снимок для запроса.
func (s *Session) BeginAnalysis() (uint64, ImageFile, error) {
	if s.image == nil {
		return 0, ImageFile{}, ErrNoImage
	}
	if s.state == StateAnalyzing {
		return 0, ImageFile{}, ErrAnalysisInProgress
	}
	s.state = StateAnalyzing
	s.result = nil
	s.failure = ""
	return s.generation, *s.image, nil
}

// Succeed завершает анализ результатом. Возвращает false для устаревшего запроса.
func (s *Session) Succeed(generation uint64, result *AnalysisResult) bool {
	if !s.awaiting(generation) || result == nil {
		return false
	}
	s.state = StateSucceeded
	s.result = result
	return true
}

// Fail завершает анализ ошибкой. Снимок и превью остаются для повторной попытки.
func (s *Session) Fail(generation uint64, message string) bool {
	if !s.awaiting(generation) {
		return false
	}
	s.state = StateFailed
	s.failure = message
	return true
}

// Reset возвращает сессию в StateEmpty.
func (s *Session) Reset() {
	s.generation++
	s.state = StateEmpty
	s.image = nil
	s.preview = ""
	s.result = nil
	s.failure = ""
}

func (s *Session) awaiting(generation uint64) bool {
	return s.state == StateAnalyzing && generation == s.generation
}

// Snapshot возвращает копию наблюдаемых полей сессии.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		OperatorID: s.OperatorID,
		ChatID:     s.ChatID,
		State:      s.state,
		Image:      s.image,
		PreviewURI: s.preview,
		Result:     s.result,
		Error:      s.failure,
	}
}

// Snapshot неизменяемое представление сессии для слоя представления.
type Snapshot struct {
	OperatorID int64
	ChatID     int64
	State      SessionState
	Image      *ImageFile
	PreviewURI string
	Result     *AnalysisResult
	Error      string
}

// IsAnalyzing сообщает, что запрос к сервису ещё не завершён.
func (s Snapshot) IsAnalyzing() bool {
	return s.State == StateAnalyzing
}

// HasImage сообщает, что снимок выбран.
func (s Snapshot) HasImage() bool {
	return s.Image != nil
}
