package component

import "github.com/milk9111/cameraman/common"

type Transform struct {
	common.Transform
}

var TransformComponent = NewNamedComponent[Transform]("transform")
