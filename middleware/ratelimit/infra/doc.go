// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowLog: log de requisições por chave (domain.WindowCounter)
//   - BlockList: bloqueios com instante final (domain.BlockRegistry)
//   - StartJanitor: limpeza periódica das duas tabelas
//   - stats: memória, Redis e Prometheus
//   - ChanPool: semáforo simples para limite de concorrência
//
// WindowLog e BlockList são tabelas particionadas (shards) com um mutex por
// shard, escolhido pelo hash da chave.
package infra
