package engine

type Component interface {
	Start()
	Update(deltaTime float32)
	SetGameObject(g *GameObject)
	GetGameObject() *GameObject
}

// Serializable is implemented by components that can describe themselves,
// e.g. for the sandbox API.
type Serializable interface {
	TypeName() string
	Serialize() map[string]any
}

// TriggerHandler is implemented by components that want trigger volume
// callbacks for their GameObject.
type TriggerHandler interface {
	OnTriggerEnter(trigger string)
	OnTriggerExit(trigger string)
}

// BaseComponent provides default implementation for Component interface
type BaseComponent struct {
	gameObject *GameObject
}

func (b *BaseComponent) Start() {}

func (b *BaseComponent) Update(deltaTime float32) {}

func (b *BaseComponent) SetGameObject(g *GameObject) {
	b.gameObject = g
}

func (b *BaseComponent) GetGameObject() *GameObject {
	return b.gameObject
}
