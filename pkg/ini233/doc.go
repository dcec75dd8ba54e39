// Package ini233 提供自动热重载的 INI 配置存储。
//
// 配置文件在磁盘上被外部修改（编辑器保存、ConfigMap 滚动更新、
// 兄弟进程写入）后，内存中的快照会自动跟进，进程无需重启，
// 也无需显式调用 reload。
//
// # 功能特性
//
//   - 基于 fsnotify 监听文件所在目录（原子 rename 替换也能感知）
//   - 防抖 + 冷却：一阵连续写入只触发一次重载
//   - 快照原子交换：读取方要么看到旧配置、要么看到新配置，
//     绝不会看到半解析状态
//   - 坏的编辑不影响线上：解析失败保留旧快照，错误可通过
//     LastReloadError 查询，文件修好后自动恢复
//   - 进程自身的 Write 不会触发多余的重载
//   - 读取无锁，可任意并发
//
// # 快速开始
//
//	cfg, err := ini233.NewAutoConfig233("app.ini").
//	    AutoCreate(true).
//	    DebounceWindow(100 * time.Millisecond).
//	    Open()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cfg.Close()
//
//	host, err := cfg.Get("server", "host")
//	port, err := cfg.GetInt("server", "port")
//	debug := cfg.GetOr("server", "debug", "false")
//
// # 写入
//
//	cfg.AddSection("cache")
//	cfg.Set("cache", "ttl", "300")
//	cfg.Write() // 持久化到磁盘，自写入事件会被识别并跳过
//
// # 变更监听
//
//	cfg.AddChangeListener(ini233.SnapshotChangeFunc(func(version uint64, doc *ini233.Document) {
//	    fmt.Println("配置更新到版本", version)
//	}))
//
// # 日志集成
//
// ini233 支持 logr 接口：
//
//	import "github.com/go-logr/logr"
//	ini233.SetLogger(yourLogger)
package ini233
