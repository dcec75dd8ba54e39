package ini233

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/neko233-com/ini233-go/internal/fsx"
)

// uniformDoc 构造一个所有值都为 marker 的文档
// 用于校验读取方看到的快照是否内部一致
func uniformDoc(marker string) *Document {
	doc := newDocument(false)
	for _, sec := range []string{"s1", "s2", "s3"} {
		doc.appendSection(sec)
		doc.setValue(sec, "k1", marker)
		doc.setValue(sec, "k2", marker)
	}
	return doc
}

// isUniform 检查文档内所有值是否一致
func isUniform(doc *Document) bool {
	first := ""
	for _, sec := range doc.Sections() {
		items, _ := doc.Items(sec)
		for _, kv := range items {
			if first == "" {
				first = kv.Value
			}
			if kv.Value != first {
				return false
			}
		}
	}
	return true
}

func TestSnapshotStore_VersionMonotonic(t *testing.T) {
	st := newSnapshotStore(uniformDoc("a"), fsx.Stamp{})

	if got := st.current().version; got != 1 {
		t.Fatalf("初始版本应为 1, 实际 %d", got)
	}
	v2 := st.publish(uniformDoc("b"), fsx.Stamp{})
	v3 := st.publish(uniformDoc("c"), fsx.Stamp{})
	if v2 != 2 || v3 != 3 {
		t.Errorf("版本应单调递增: %d %d", v2, v3)
	}
}

// TestSnapshotStore_AtomicityUnderRace 并发读写下读取方
// 永远只能看到整体一致的快照（全旧或全新），版本单调
func TestSnapshotStore_AtomicityUnderRace(t *testing.T) {
	st := newSnapshotStore(uniformDoc("a"), fsx.Stamp{})

	stop := make(chan struct{})
	var inconsistent atomic.Int64
	var wg sync.WaitGroup

	// 写入方：在 a / b 两个整体状态之间交替发布
	wg.Add(1)
	go func() {
		defer wg.Done()
		markers := []string{"a", "b"}
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			st.publish(uniformDoc(markers[i%2]), fsx.Stamp{})
		}
	}()

	// 读取方：反复抓取快照，校验一致性与版本单调
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var lastVersion uint64
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := st.current()
				if snap.version < lastVersion {
					inconsistent.Add(1)
					return
				}
				lastVersion = snap.version
				if !isUniform(snap.doc) {
					inconsistent.Add(1)
					return
				}
			}
		}()
	}

	time.Sleep(200 * time.Millisecond)
	close(stop)
	wg.Wait()

	if n := inconsistent.Load(); n != 0 {
		t.Fatalf("观察到 %d 次不一致快照", n)
	}
}

func TestSnapshotStore_Mutate(t *testing.T) {
	st := newSnapshotStore(uniformDoc("a"), fsx.Stamp{})

	snap, err := st.mutate(func(doc *Document) (*Document, error) {
		return doc.withSet("s1", "k1", "changed"), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if snap.version != 2 {
		t.Errorf("mutate 应发布新版本, 实际 %d", snap.version)
	}
	if v, _ := st.current().doc.Get("s1", "k1"); v != "changed" {
		t.Errorf("mutate 结果未生效: %q", v)
	}

	// fn 返回错误时不应发布
	_, err = st.mutate(func(doc *Document) (*Document, error) {
		return nil, &NotFoundError{Section: "x"}
	})
	if err == nil {
		t.Fatal("mutate 应透传错误")
	}
	if st.current().version != 2 {
		t.Errorf("失败的 mutate 不应改变版本: %d", st.current().version)
	}
}

func TestSnapshotStore_UpdateStamp(t *testing.T) {
	st := newSnapshotStore(uniformDoc("a"), fsx.Stamp{})
	stamp := fsx.Stamp{ModTime: time.Now(), Size: 42}

	before := st.current()
	st.updateStamp(stamp)
	after := st.current()

	if after.version != before.version || after.doc != before.doc {
		t.Error("updateStamp 不应改变文档和版本")
	}
	if !after.stamp.Equal(stamp) {
		t.Error("stamp 未更新")
	}
}
