package engine

import (
	"strings"

	"github.com/Hadjerbacha/CETIC-GEIDE-sub001/internal/model"
)

// TaskBlueprint 任务蓝图
// DependsOnOrder 以 order 符号引用前置任务,实例化时改写为真实任务 ID
type TaskBlueprint struct {
	Title          string
	Description    string
	Type           string // validation/operation
	Role           string
	Order          int
	DurationDays   int  // 自然日,非工作日
	DependsOnOrder *int // 前置任务的 order,可为空
}

// Template 工作流模板
// 静态定义文档类别到有序任务 DAG 的映射
type Template struct {
	Name        string
	Category    string
	Description string
	Tasks       []TaskBlueprint
}

// Validate 验证模板依赖图
// 依赖必须引用已声明且 order 严格更小的任务;图中不允许有环。
// 在模板注册时执行,运行期不再检查
func (t *Template) Validate() error {
	declared := make(map[int]bool, len(t.Tasks))
	for _, bp := range t.Tasks {
		declared[bp.Order] = true
	}

	deps := make(map[int]int, len(t.Tasks))
	for _, bp := range t.Tasks {
		if bp.DependsOnOrder == nil {
			continue
		}
		ref := *bp.DependsOnOrder
		if !declared[ref] {
			return &DependencyCycleError{Template: t.Name, Order: bp.Order, Reason: "depends on undeclared order"}
		}
		if ref >= bp.Order {
			return &DependencyCycleError{Template: t.Name, Order: bp.Order, Reason: "depends on an equal or later order"}
		}
		deps[bp.Order] = ref
	}

	// order 严格递减的依赖链不可能成环,但模板允许重复 order,
	// 这里仍沿依赖链走一遍,防止声明错误
	for start := range deps {
		seen := map[int]bool{start: true}
		cur := start
		for {
			next, ok := deps[cur]
			if !ok {
				break
			}
			if seen[next] {
				return &DependencyCycleError{Template: t.Name, Order: next, Reason: "dependency cycle detected"}
			}
			seen[next] = true
			cur = next
		}
	}

	return nil
}

// Registry 模板注册表
// 类别到模板的静态映射,未知类别返回 nil 而非错误
type Registry struct {
	templates map[string]*Template
}

// NewRegistry 创建注册表并加载内置模板
func NewRegistry() (*Registry, error) {
	r := &Registry{templates: make(map[string]*Template)}
	for _, t := range builtinTemplates() {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register 注册模板,带环或非法引用的模板被拒绝
func (r *Registry) Register(t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.templates[t.Category] = t
	return nil
}

// Get 根据类别获取模板,未知类别返回 nil
func (r *Registry) Get(category string) *Template {
	return r.templates[category]
}

// Categories 返回已注册的类别列表
func (r *Registry) Categories() []string {
	out := make([]string, 0, len(r.templates))
	for c := range r.templates {
		out = append(out, c)
	}
	return out
}

// categoryKeywords 目录名称关键字到类别的映射
// 显式类别缺失时的低精度兜底解析
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"facture", model.CategoryFacture},
	{"invoice", model.CategoryFacture},
	{"contrat", model.CategoryContrat},
	{"contract", model.CategoryContrat},
	{"congé", model.CategoryDemandeConge},
	{"conge", model.CategoryDemandeConge},
	{"leave", model.CategoryDemandeConge},
	{"cv", model.CategoryCV},
	{"curriculum", model.CategoryCV},
}

// ResolveFromName 从目录显示名称推断模板
// 仅在显式类别缺失时使用,调用方需要记录走了兜底路径
func (r *Registry) ResolveFromName(name string) *Template {
	lower := strings.ToLower(name)
	for _, kw := range categoryKeywords {
		if strings.Contains(lower, kw.keyword) {
			if t := r.templates[kw.category]; t != nil {
				return t
			}
		}
	}
	return nil
}

// intPtr 蓝图声明辅助
func intPtr(v int) *int { return &v }

// builtinTemplates 内置模板定义
func builtinTemplates() []*Template {
	return []*Template{
		{
			Name:        "Validation facture",
			Category:    model.CategoryFacture,
			Description: "Vérification et validation d'une facture",
			Tasks: []TaskBlueprint{
				{Title: "Vérifier les informations de la facture", Description: "Contrôler montant, fournisseur et références", Type: model.TaskTypeOperation, Role: model.RoleEmploye, Order: 1, DurationDays: 2},
				{Title: "Contrôler la conformité comptable", Description: "Rapprochement bon de commande / livraison", Type: model.TaskTypeOperation, Role: model.RoleManager, Order: 2, DurationDays: 3, DependsOnOrder: intPtr(1)},
				{Title: "Valider la facture", Description: "Approbation finale avant paiement", Type: model.TaskTypeValidation, Role: model.RoleDirecteur, Order: 3, DurationDays: 2, DependsOnOrder: intPtr(2)},
			},
		},
		{
			Name:        "Traitement contrat",
			Category:    model.CategoryContrat,
			Description: "Relecture et signature d'un contrat",
			Tasks: []TaskBlueprint{
				{Title: "Relire les clauses du contrat", Description: "Vérification juridique des clauses", Type: model.TaskTypeOperation, Role: model.RoleEmploye, Order: 1, DurationDays: 3},
				{Title: "Négocier les conditions", Description: "Ajustements avec la partie contractante", Type: model.TaskTypeOperation, Role: model.RoleManager, Order: 2, DurationDays: 5, DependsOnOrder: intPtr(1)},
				{Title: "Approuver le contrat", Description: "Validation de direction", Type: model.TaskTypeValidation, Role: model.RoleDirecteur, Order: 3, DurationDays: 2, DependsOnOrder: intPtr(2)},
				{Title: "Archiver le contrat signé", Description: "Classement du contrat dans le dossier", Type: model.TaskTypeOperation, Role: model.RoleEmploye, Order: 4, DurationDays: 1, DependsOnOrder: intPtr(3)},
			},
		},
		{
			Name:        "Demande de congé",
			Category:    model.CategoryDemandeConge,
			Description: "Circuit d'approbation d'une demande de congé",
			Tasks: []TaskBlueprint{
				{Title: "Vérifier le solde de congés", Description: "Contrôle du solde disponible", Type: model.TaskTypeOperation, Role: model.RoleManager, Order: 1, DurationDays: 1},
				{Title: "Approuver la demande", Description: "Décision finale sur la demande", Type: model.TaskTypeValidation, Role: model.RoleDirecteur, Order: 2, DurationDays: 2, DependsOnOrder: intPtr(1)},
			},
		},
		{
			Name:        "Examen CV",
			Category:    model.CategoryCV,
			Description: "Examen d'une candidature",
			Tasks: []TaskBlueprint{
				{Title: "Présélectionner le CV", Description: "Filtrage sur les critères du poste", Type: model.TaskTypeOperation, Role: model.RoleEmploye, Order: 1, DurationDays: 2},
				{Title: "Conduire l'entretien", Description: "Entretien avec le candidat", Type: model.TaskTypeOperation, Role: model.RoleManager, Order: 2, DurationDays: 7, DependsOnOrder: intPtr(1)},
				{Title: "Valider la candidature", Description: "Décision d'embauche", Type: model.TaskTypeValidation, Role: model.RoleDirecteur, Order: 3, DurationDays: 3, DependsOnOrder: intPtr(2)},
			},
		},
	}
}
