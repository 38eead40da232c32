package config

// SafeErrorMessage 生产环境下隐藏内部错误详情，开发环境返回原始错误便于排查
func SafeErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if GlobalConfig != nil && GlobalConfig.Server.Mode == "release" {
		return fallback
	}
	return err.Error()
}
