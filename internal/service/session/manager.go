package session

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// 输入请求的两种降级结果，作为固定哨兵串返回给游戏逻辑
const (
	NoResponseText   = "(No response)"
	DisconnectedText = "(Disconnected)"
)

// pendingInput 是一次性的输入会合点，answerCh 缓冲为 1，
// 保证 Deliver / 断连解析不会阻塞持锁方
type pendingInput struct {
	answerCh chan string
}

// Manager 维护身份到出站通道的映射，以及每个身份至多一个的待定输入。
// 不感知游戏语义，事件负载按 any 透传。
type Manager struct {
	mu      sync.RWMutex
	conns   map[string]chan any
	pending map[string]*pendingInput
}

func NewManager() *Manager {
	return &Manager{
		conns:   make(map[string]chan any),
		pending: make(map[string]*pendingInput),
	}
}

// Bind 注册身份的出站通道；重连时替换旧通道并将其关闭，
// 旧连接的写协程据此退出
func (m *Manager) Bind(identity string, out chan any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.conns[identity]; ok && old != out {
		close(old)
		zap.L().Info("会话重新绑定，关闭旧通道", zap.String("identity", identity))
	}

	m.conns[identity] = out
}

// Unbind 解除绑定并关闭通道；仅当给定通道仍是当前绑定时生效，
// 避免误关重连后的新通道
func (m *Manager) Unbind(identity string, out chan any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.conns[identity]; ok && cur == out {
		delete(m.conns, identity)
		close(cur)
	}
}

// Bound 返回该身份当前是否有连接
func (m *Manager) Bound(identity string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.conns[identity]
	return ok
}

// Push 尽力投递一个事件：未绑定则丢弃，通道已满也丢弃
func (m *Manager) Push(identity string, event any) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ch, ok := m.conns[identity]
	if !ok {
		zap.L().Debug("身份未绑定，丢弃事件", zap.String("identity", identity))
		return
	}

	select {
	case ch <- event:
	default:
		zap.L().Warn("出站通道已满，丢弃事件", zap.String("identity", identity))
	}
}

// Broadcast 对一组身份逐个 Push
func (m *Manager) Broadcast(event any, identities []string) {
	for _, identity := range identities {
		m.Push(identity, event)
	}
}

// RequestInput 发送提示并等待一次性应答。
// 三种解析方式：Deliver 送达答案、超时返回 NoResponseText、
// 断连返回 DisconnectedText。零超时立即按无应答处理。
func (m *Manager) RequestInput(identity string, prompt any, timeout time.Duration) string {
	m.mu.Lock()

	if _, ok := m.conns[identity]; !ok {
		m.mu.Unlock()
		zap.L().Warn("请求输入时身份未绑定", zap.String("identity", identity))
		return DisconnectedText
	}

	p := &pendingInput{answerCh: make(chan string, 1)}
	m.pending[identity] = p

	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.pending[identity] == p {
			delete(m.pending, identity)
		}
		m.mu.Unlock()
	}()

	m.Push(identity, prompt)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case answer := <-p.answerCh:
		return answer

	case <-timer.C:
		zap.L().Warn(
			"等待输入超时",
			zap.String("identity", identity),
			zap.Duration("timeout", timeout),
		)
		return NoResponseText
	}
}

// Deliver 将入站答案路由给待定的输入请求；无待定请求时返回 false
func (m *Manager) Deliver(identity string, answer string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pending[identity]
	if !ok {
		return false
	}

	select {
	case p.answerCh <- answer:
	default:
	}

	delete(m.pending, identity)

	return true
}

// DisconnectChannel 处理某个具体连接的断开：仅当该通道仍是
// 当前绑定时才解析待定输入并解绑。重连后旧连接的收尾调用
// 它不会影响新连接。
func (m *Manager) DisconnectChannel(identity string, out chan any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.conns[identity]
	if !ok || cur != out {
		return
	}

	if p, ok := m.pending[identity]; ok {
		select {
		case p.answerCh <- DisconnectedText:
		default:
		}
		delete(m.pending, identity)
	}

	delete(m.conns, identity)
	close(cur)

	zap.L().Info("连接断开", zap.String("identity", identity))
}

// HandleDisconnect 在连接断开时调用：
// 用断连哨兵解析待定输入，并解除当前绑定
func (m *Manager) HandleDisconnect(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pending[identity]; ok {
		select {
		case p.answerCh <- DisconnectedText:
		default:
		}
		delete(m.pending, identity)
	}

	if ch, ok := m.conns[identity]; ok {
		delete(m.conns, identity)
		close(ch)
	}

	zap.L().Info("会话断开", zap.String("identity", identity))
}
