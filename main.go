// GEIDE 文档管理后端
// 提供文档工作流引擎的 REST API: 工作流创建、任务流转、权限传播
package main

import "github.com/Hadjerbacha/CETIC-GEIDE-sub001/cmd"

func main() {
	cmd.Execute()
}
