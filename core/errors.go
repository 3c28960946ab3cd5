package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - 特征错误：DATA_LOAD（数据源缺列/不可读，启动期致命）
//   - 事件存储错误：UNAVAILABLE（读写失败，降级处理）
//   - 查找错误：NOT_FOUND（未知商品/客户，回退默认值）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "DATA_LOAD"）
	Message string // 错误消息
	Module  string // 模块名称（如 "feature", "event"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeDataLoad      = "DATA_LOAD"      // 特征数据加载失败（致命）
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 存储/服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleFeature = "feature" // 特征模块
	ModuleEvent   = "event"   // 事件存储模块
	ModuleIndex   = "index"   // 文本索引模块
	ModuleEngine  = "engine"  // 评分引擎模块
)

// 引擎级哨兵错误
var (
	// ErrNotReady 表示特征快照尚未加载完成，引擎拒绝服务
	ErrNotReady = NewDomainError(ModuleEngine, ErrorCodeUnavailable, "engine: feature snapshot not loaded")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsDataLoad 检查错误是否为 DATA_LOAD（加载期致命错误）
func IsDataLoad(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeDataLoad
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}
