package instance

import (
	"os"

	"fmusim/types"
	"fmusim/utils"
)

// SaveFMUStateToFile 保存状态快照，序列化数据原样写入文件
func (inst *Instance) SaveFMUStateToFile(path string) types.Status {
	state, status := inst.GetFMUState()
	if status > types.StatusWarning {
		return status
	}
	data, s := inst.SerializeFMUState(state)
	status = types.MaxStatus(status, s)
	if status <= types.StatusWarning {
		if err := utils.AtomicWriteFile(path, data, 0o644); err != nil {
			inst.LogError("写入状态文件 %s 失败: %v", path, err)
			status = types.StatusError
		}
	}
	return types.MaxStatus(status, inst.FreeFMUState(state))
}

// RestoreFMUStateFromFile 从文件恢复状态快照
func (inst *Instance) RestoreFMUStateFromFile(path string) types.Status {
	data, err := os.ReadFile(path)
	if err != nil {
		inst.LogError("读取状态文件 %s 失败: %v", path, err)
		return types.StatusError
	}
	state, status := inst.DeserializeFMUState(data)
	if status > types.StatusWarning {
		return status
	}
	status = types.MaxStatus(status, inst.SetFMUState(state))
	return types.MaxStatus(status, inst.FreeFMUState(state))
}
