package engine

import (
	"sort"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Directory 用户目录
// 身份与角色由外部系统提供,引擎只读取
type Directory interface {
	GetUser(id string) (*model.UserModel, error)
	ListByRole(role string) ([]*model.UserModel, error)
}

// DirectoryProvider 从给定数据库连接构造用户目录。
// 工厂在事务内解析指派人,目录必须建在事务连接上,
// 否则负载读取与任务写入落在不同连接,sqlite 内存库下直接读到空库
type DirectoryProvider func(db *gorm.DB) Directory

// singletonRoles 单例角色: 取唯一持有人而非负载均衡
var singletonRoles = map[string]bool{
	model.RoleDirecteur: true,
}

// candidate 候选指派人
type candidate struct {
	id   string
	load int64
}

// Resolver 指派解析器
// 每次工厂运行创建一个实例: 池化角色按负载升序排队,
// 每次选中后把被选人移到队尾,避免同一批任务全部压到当时负载最低的人。
// 并发创建工作流时两个解析器可能读到同一份负载排序,
// 这是已知的竞态,负载均衡是尽力而为,不是互斥保证
type Resolver struct {
	directory Directory
	queues    map[string][]candidate
	logger    *logrus.Logger
}

// NewResolver 创建指派解析器
func NewResolver(directory Directory, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Resolver{
		directory: directory,
		queues:    make(map[string][]candidate),
		logger:    logger,
	}
}

// Resolve 为任务选择指派人,无合格人选时返回 nil
// 审批类任务无论蓝图角色如何,一律路由给审批角色
func (r *Resolver) Resolve(role string, taskType string) (*string, error) {
	if taskType == model.TaskTypeValidation {
		role = model.RoleDirecteur
	}

	if singletonRoles[role] {
		return r.resolveSingleton(role)
	}
	return r.resolvePooled(role)
}

// resolveSingleton 单例角色: 取唯一持有人
func (r *Resolver) resolveSingleton(role string) (*string, error) {
	users, err := r.directory.ListByRole(role)
	if err != nil {
		return nil, err
	}

	eligible := eligibleCandidates(users)
	if len(eligible) == 0 {
		return nil, nil
	}
	if len(eligible) > 1 {
		// 单例角色出现多个持有人: 取 ID 最小者,保证确定性
		r.logger.WithFields(logrus.Fields{
			"role":  role,
			"count": len(eligible),
		}).Warn("singleton role has multiple holders, picking lowest user id")
	}

	sort.Slice(eligible, func(i, j int) bool { return eligible[i].id < eligible[j].id })
	id := eligible[0].id
	return &id, nil
}

// resolvePooled 池化角色: 负载最低者优先,选中后轮转到队尾
func (r *Resolver) resolvePooled(role string) (*string, error) {
	queue, ok := r.queues[role]
	if !ok {
		users, err := r.directory.ListByRole(role)
		if err != nil {
			return nil, err
		}
		queue = eligibleCandidates(users)
		// 负载升序,负载相同按用户 ID 升序,保持稳定
		sort.Slice(queue, func(i, j int) bool {
			if queue[i].load != queue[j].load {
				return queue[i].load < queue[j].load
			}
			return queue[i].id < queue[j].id
		})
	}

	if len(queue) == 0 {
		r.queues[role] = queue
		return nil, nil
	}

	chosen := queue[0]
	// 轮转: 被选人移到队尾
	r.queues[role] = append(queue[1:], chosen)

	id := chosen.id
	return &id, nil
}

// eligibleCandidates 过滤禁用用户
func eligibleCandidates(users []*model.UserModel) []candidate {
	out := make([]candidate, 0, len(users))
	for _, u := range users {
		if u.Disabled {
			continue
		}
		out = append(out, candidate{id: u.ID, load: u.LoadMetric})
	}
	return out
}
