// Package timetable 选课组合引擎。
//
// 纯计算包：无 I/O、无全局可变状态、无并发。
//   - Overlaps / SectionsConflict：时间段与开班冲突判定
//   - GenerateCombinations：按输入顺序的有界回溯搜索
//   - Rank：按总学分稳定降序排序并统计
//   - Browser：会话层持有的浏览游标
//   - DetectConflicts：任意可见条目集合的冲突检测
//
// 目录与方案的读取、持久化、异步调度均在 service 层完成。
package timetable
